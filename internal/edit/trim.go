package edit

import (
	"fmt"
	"math"

	"github.com/avharness/cutline/internal/timeline"
)

// TrimClip adjusts a clip's source in/out points. When the left edge moves,
// the position shifts by the same delta so the fixed edge stays anchored on
// the timeline.
type TrimClip struct {
	ClipID   string
	InPoint  *int64 // nil: keep current
	OutPoint *int64 // nil: keep current
}

// Apply validates bounds and resulting duration, then retrims. The boolean
// result reports whether anything changed.
func (op TrimClip) Apply(p *timeline.Project) (bool, *Error) {
	c, tr, err := findClip(p, op.ClipID)
	if err != nil {
		return false, err
	}

	if tr.Locked {
		return false, Errorf(CodeLocked, "track %q is locked", tr.ID)
	}

	newIn, newOut := c.InPoint, c.OutPoint

	if op.InPoint != nil {
		newIn = *op.InPoint
	}

	if op.OutPoint != nil {
		newOut = *op.OutPoint
	}

	if newIn == c.InPoint && newOut == c.OutPoint {
		return false, nil
	}

	if newIn < 0 {
		return false, Errorf(CodeOutOfRange, "in_point %d is negative", newIn)
	}

	if newOut < newIn {
		return false, Errorf(CodeOutOfRange, "trim would collapse clip %q (in %d, out %d)", c.ID, newIn, newOut)
	}

	prod, err := findProducer(p, c.ProducerID)
	if err != nil {
		return false, err
	}

	if bounds, ok := prod.Bounds(); ok && newOut > bounds-1 {
		return false, Errorf(CodeOutOfRange, "out_point %d exceeds producer %q bounds (%d frames)", newOut, prod.ID, bounds)
	}

	// Anchor the right edge when the left edge moves.
	newPos := c.Position + (newIn - c.InPoint)

	pl := plan{c.ID: {pos: newPos, in: newIn, out: newOut}}

	return true, pl.apply(p)
}

// SplitClip cuts a clip at an interior timeline frame into two clips sharing
// the producer.
type SplitClip struct {
	ClipID string
	Frame  int64
}

// Apply splits the clip and returns the second part. The split frame must be
// strictly inside the clip's span; part durations always sum to the
// original's.
func (op SplitClip) Apply(p *timeline.Project) (*timeline.Clip, *Error) {
	c, tr, err := findClip(p, op.ClipID)
	if err != nil {
		return nil, err
	}

	if tr.Locked {
		return nil, Errorf(CodeLocked, "track %q is locked", tr.ID)
	}

	if op.Frame <= c.Position || op.Frame >= c.End() {
		return nil, Errorf(CodeOutOfRange,
			"split frame %d is outside clip %q interior (%d, %d)", op.Frame, c.ID, c.Position, c.End())
	}

	offset := op.Frame - c.Position

	second := &timeline.Clip{
		ID:         timeline.NewClipID(),
		ProducerID: c.ProducerID,
		Position:   op.Frame,
		InPoint:    c.InPoint + offset,
		OutPoint:   c.OutPoint,
	}

	for _, e := range c.Effects {
		second.Effects = append(second.Effects, cloneEffect(e))
	}

	c.OutPoint = c.InPoint + offset - 1

	if placeErr := tr.Place(second); placeErr != nil {
		c.OutPoint = second.OutPoint

		return nil, FromModel(placeErr)
	}

	return second, nil
}

// Slip shifts a clip's in/out points together while its position stays
// fixed. The shift is clamped to the producer's probed bounds.
type Slip struct {
	ClipID string
	Delta  int64
}

// Apply slips the clip and reports the clamped delta actually applied.
func (op Slip) Apply(p *timeline.Project) (int64, *Error) {
	c, tr, err := findClip(p, op.ClipID)
	if err != nil {
		return 0, err
	}

	if tr.Locked {
		return 0, Errorf(CodeLocked, "track %q is locked", tr.ID)
	}

	prod, err := findProducer(p, c.ProducerID)
	if err != nil {
		return 0, err
	}

	delta := op.Delta

	if c.InPoint+delta < 0 {
		delta = -c.InPoint
	}

	if bounds, ok := prod.Bounds(); ok && c.OutPoint+delta > bounds-1 {
		delta = bounds - 1 - c.OutPoint
	}

	if delta == 0 {
		return 0, nil
	}

	c.InPoint += delta
	c.OutPoint += delta

	return delta, nil
}

// Slide moves a clip along its track while contiguous neighbors absorb the
// change: the previous clip's tail extends or shortens and the next clip's
// head trims or grows, leaving the slid clip's duration untouched. A
// neighbor without enough trimmable range fails the whole slide.
type Slide struct {
	ClipID string
	Delta  int64
}

// Apply performs the slide all-or-nothing.
func (op Slide) Apply(p *timeline.Project) (bool, *Error) {
	if op.Delta == 0 {
		return false, nil
	}

	c, tr, err := findClip(p, op.ClipID)
	if err != nil {
		return false, err
	}

	if tr.Locked {
		return false, Errorf(CodeLocked, "track %q is locked", tr.ID)
	}

	var prev, next *timeline.Clip

	for _, other := range tr.Clips {
		switch {
		case other.Position < c.Position && (prev == nil || other.Position > prev.Position):
			prev = other
		case other.Position > c.Position && (next == nil || other.Position < next.Position):
			next = other
		}
	}

	newPos := c.Position + op.Delta
	if newPos < 0 {
		return false, Errorf(CodeOutOfRange, "slide would move clip %q to %d", c.ID, newPos)
	}

	pl := plan{c.ID: {pos: newPos, in: c.InPoint, out: c.OutPoint}}

	if op.Delta > 0 {
		if next != nil {
			if overlap := (newPos + c.Duration()) - next.Position; overlap > 0 {
				if overlap >= next.Duration() {
					return false, Errorf(CodeOutOfRange, "slide would consume neighbor %q", next.ID)
				}

				pl[next.ID] = span{pos: next.Position + overlap, in: next.InPoint + overlap, out: next.OutPoint}
			}
		}

		if prev != nil && prev.End() == c.Position {
			newOut := prev.OutPoint + op.Delta
			if e := boundsCheck(p, prev, newOut); e != nil {
				return false, e
			}

			pl[prev.ID] = span{pos: prev.Position, in: prev.InPoint, out: newOut}
		}
	} else {
		if prev != nil {
			if overlap := prev.End() - newPos; overlap > 0 {
				if overlap >= prev.Duration() {
					return false, Errorf(CodeOutOfRange, "slide would consume neighbor %q", prev.ID)
				}

				pl[prev.ID] = span{pos: prev.Position, in: prev.InPoint, out: prev.OutPoint - overlap}
			}
		}

		if next != nil && c.End() == next.Position {
			newIn := next.InPoint + op.Delta
			if newIn < 0 {
				return false, Errorf(CodeOutOfRange, "neighbor %q lacks head room to absorb slide", next.ID)
			}

			pl[next.ID] = span{pos: next.Position + op.Delta, in: newIn, out: next.OutPoint}
		}
	}

	return true, pl.apply(p)
}

// boundsCheck rejects an out point past the clip's probed producer length.
func boundsCheck(p *timeline.Project, c *timeline.Clip, newOut int64) *Error {
	prod := p.Producer(c.ProducerID)
	if prod == nil {
		return Errorf(CodeNotFound, "producer %q not found", c.ProducerID)
	}

	if bounds, ok := prod.Bounds(); ok && newOut > bounds-1 {
		return Errorf(CodeOutOfRange, "neighbor %q lacks tail room to absorb slide", c.ID)
	}

	return nil
}

// TimeRemap changes a clip's playback speed: the timeline duration becomes
// round(duration/speed) while the source range is annotated, not recut.
type TimeRemap struct {
	ClipID string
	Speed  float64
}

// Apply retimes the clip and records the speed on a time-remap effect.
// It returns the old and new timeline durations plus whether the model
// changed; a rounding-neutral speed can leave the duration alone while the
// speed annotation is still new.
func (op TimeRemap) Apply(p *timeline.Project) (oldDur, newDur int64, changed bool, err *Error) {
	if op.Speed <= 0 {
		return 0, 0, false, Errorf(CodeInvalidInput, "speed %v must be > 0", op.Speed)
	}

	c, tr, err := findClip(p, op.ClipID)
	if err != nil {
		return 0, 0, false, err
	}

	if tr.Locked {
		return 0, 0, false, Errorf(CodeLocked, "track %q is locked", tr.ID)
	}

	oldDur = c.Duration()

	newDur = int64(math.Round(float64(oldDur) / op.Speed))
	if newDur < 1 {
		newDur = 1
	}

	pl := plan{c.ID: {pos: c.Position, in: c.InPoint, out: c.InPoint + newDur - 1}}

	if applyErr := pl.apply(p); applyErr != nil {
		return 0, 0, false, applyErr
	}

	annotated := setRemapEffect(c, op.Speed)

	return oldDur, newDur, oldDur != newDur || annotated, nil
}

// setRemapEffect writes the speed onto the clip's time-remap effect, creating
// it if absent, and reports whether the stored value changed.
func setRemapEffect(c *timeline.Clip, speed float64) bool {
	value := fmt.Sprintf("%g", speed)

	for _, e := range c.Effects {
		if e.Service == "timeremap" {
			if e.Properties == nil {
				e.Properties = map[string]string{}
			}

			if e.Properties["speed"] == value {
				return false
			}

			e.Properties["speed"] = value

			return true
		}
	}

	c.Effects = append(c.Effects, &timeline.Effect{
		ID:         "time-remap",
		Service:    "timeremap",
		Properties: map[string]string{"speed": value},
	})

	return true
}

// Nudge shifts a clip's position by a delta with a full overlap check.
// Grouped clips nudge their whole group.
type Nudge struct {
	ClipID string
	Delta  int64
}

// Apply performs the nudge, reporting whether anything moved.
func (op Nudge) Apply(p *timeline.Project) (bool, *Error) {
	if op.Delta == 0 {
		return false, nil
	}

	c, tr, err := findClip(p, op.ClipID)
	if err != nil {
		return false, err
	}

	if tr.Locked {
		return false, Errorf(CodeLocked, "track %q is locked", tr.ID)
	}

	if c.GroupID != "" {
		return true, moveGroup(p, c.GroupID, op.Delta)
	}

	pl := plan{c.ID: {pos: c.Position + op.Delta, in: c.InPoint, out: c.OutPoint}}

	return true, pl.apply(p)
}

func cloneEffect(e *timeline.Effect) *timeline.Effect {
	out := &timeline.Effect{ID: e.ID, Service: e.Service}

	if e.Properties != nil {
		out.Properties = make(map[string]string, len(e.Properties))
		for k, v := range e.Properties {
			out.Properties[k] = v
		}
	}

	if e.Keyframes != nil {
		out.Keyframes = make(map[string][]timeline.Keyframe, len(e.Keyframes))
		for param, frames := range e.Keyframes {
			out.Keyframes[param] = append([]timeline.Keyframe(nil), frames...)
		}
	}

	return out
}
