package edit

import (
	"github.com/avharness/cutline/internal/timeline"
)

// AddClip places a new instance of a producer on a track.
type AddClip struct {
	TrackID    string
	ProducerID string
	Position   int64
	InPoint    int64
	// OutPoint is the inclusive source out frame. Nil means the full probed
	// producer length; that requires probe metadata on the producer.
	OutPoint *int64
}

// Apply validates the placement and inserts the clip. The new clip is
// returned so callers can report its generated instance id.
func (op AddClip) Apply(p *timeline.Project) (*timeline.Clip, *Error) {
	tr, err := findUnlockedTrack(p, op.TrackID)
	if err != nil {
		return nil, err
	}

	prod, err := findProducer(p, op.ProducerID)
	if err != nil {
		return nil, err
	}

	if op.Position < 0 {
		return nil, Errorf(CodeOutOfRange, "position %d is negative", op.Position)
	}

	if op.InPoint < 0 {
		return nil, Errorf(CodeOutOfRange, "in_point %d is negative", op.InPoint)
	}

	out := op.InPoint

	switch {
	case op.OutPoint != nil:
		out = *op.OutPoint
	default:
		bounds, ok := prod.Bounds()
		if !ok {
			return nil, Errorf(CodeInvalidInput, "producer %q has no probed duration; out_point is required", prod.ID)
		}

		out = bounds - 1
	}

	if out < op.InPoint {
		return nil, Errorf(CodeOutOfRange, "out_point %d is before in_point %d", out, op.InPoint)
	}

	if bounds, ok := prod.Bounds(); ok && out > bounds-1 {
		return nil, Errorf(CodeOutOfRange, "out_point %d exceeds producer %q bounds (%d frames)", out, prod.ID, bounds)
	}

	clip := &timeline.Clip{
		ID:         timeline.NewClipID(),
		ProducerID: prod.ID,
		Position:   op.Position,
		InPoint:    op.InPoint,
		OutPoint:   out,
	}

	if placeErr := tr.Place(clip); placeErr != nil {
		return nil, FromModel(placeErr)
	}

	return clip, nil
}

// MoveClip repositions a clip, optionally onto another track. Grouped clips
// move with their whole group by the same delta; the move succeeds for every
// member or not at all.
type MoveClip struct {
	ClipID   string
	TrackID  string // empty: stay on the current track
	Position int64
}

// Apply performs the move. The boolean result reports whether anything
// changed (moving a clip onto its current position is an idempotent no-op).
func (op MoveClip) Apply(p *timeline.Project) (bool, *Error) {
	c, src, err := findClip(p, op.ClipID)
	if err != nil {
		return false, err
	}

	if src.Locked {
		return false, Errorf(CodeLocked, "track %q is locked", src.ID)
	}

	if op.Position < 0 {
		return false, Errorf(CodeOutOfRange, "position %d is negative", op.Position)
	}

	dst := src

	if op.TrackID != "" && op.TrackID != src.ID {
		dst, err = findUnlockedTrack(p, op.TrackID)
		if err != nil {
			return false, err
		}
	}

	if dst == src && c.Position == op.Position {
		return false, nil
	}

	// Grouped clips shift together on their own tracks; a cross-track move
	// would break the group's relative layout.
	if c.GroupID != "" {
		if dst != src {
			return false, Errorf(CodeInvalidInput, "clip %q is grouped; cross-track moves must ungroup first", c.ID)
		}

		return true, moveGroup(p, c.GroupID, op.Position-c.Position)
	}

	if dst == src {
		pl := plan{c.ID: {pos: op.Position, in: c.InPoint, out: c.OutPoint}}
		return true, pl.apply(p)
	}

	if !dst.CanPlace(op.Position, c.Duration()) {
		return false, Errorf(CodeOverlap, "position %d overlaps a clip on track %q", op.Position, dst.ID)
	}

	moved, removeErr := src.Remove(c.ID)
	if removeErr != nil {
		return false, FromModel(removeErr)
	}

	moved.Position = op.Position

	if placeErr := dst.Place(moved); placeErr != nil {
		// Validated above; re-place on the source track unchanged.
		moved.Position = c.Position
		_ = src.Place(moved)

		return false, FromModel(placeErr)
	}

	return true, nil
}

// moveGroup shifts every member of a group by delta, all-or-nothing.
func moveGroup(p *timeline.Project, groupID string, delta int64) *Error {
	members := p.Group(groupID)
	if len(members) == 0 {
		return Errorf(CodeNotFound, "group %q not found", groupID)
	}

	pl := plan{}

	for _, id := range members {
		mc, mt, err := findClip(p, id)
		if err != nil {
			return err
		}

		if mt.Locked {
			return Errorf(CodeLocked, "track %q is locked", mt.ID)
		}

		pl[id] = span{pos: mc.Position + delta, in: mc.InPoint, out: mc.OutPoint}
	}

	return pl.apply(p)
}

// RemoveClip deletes a clip. With CloseGap every later clip on the same
// track ripples left by the removed duration; otherwise the gap remains.
type RemoveClip struct {
	ClipID   string
	CloseGap bool
}

// Apply removes the clip, detaches it from its group, and drops any
// transitions that referenced it.
func (op RemoveClip) Apply(p *timeline.Project) *Error {
	c, tr, err := findClip(p, op.ClipID)
	if err != nil {
		return err
	}

	if tr.Locked {
		return Errorf(CodeLocked, "track %q is locked", tr.ID)
	}

	removed, removeErr := tr.Remove(c.ID)
	if removeErr != nil {
		return FromModel(removeErr)
	}

	if removed.GroupID != "" {
		p.DropGroupMember(removed.GroupID, removed.ID)
	}

	dropTransitionsFor(p, removed.ID)

	if op.CloseGap {
		tr.ShiftFrom(removed.Position, -removed.Duration())
	}

	return nil
}

// RippleDelete removes a clip, closes the gap on its track, and additionally
// ripples grouped companions on other tracks by the same negative delta.
// Any member whose shift would overlap aborts the whole operation.
type RippleDelete struct {
	ClipID string
}

// Apply computes the ripple on a working copy and swaps it in only when
// every shift succeeds.
func (op RippleDelete) Apply(p *timeline.Project) *Error {
	c, tr, err := findClip(p, op.ClipID)
	if err != nil {
		return err
	}

	if tr.Locked {
		return Errorf(CodeLocked, "track %q is locked", tr.ID)
	}

	delta := -c.Duration()
	groupID := c.GroupID

	work := p.Clone()

	workTrack := work.Track(tr.ID)

	removed, removeErr := workTrack.Remove(c.ID)
	if removeErr != nil {
		return FromModel(removeErr)
	}

	if removed.GroupID != "" {
		work.DropGroupMember(removed.GroupID, removed.ID)
	}

	dropTransitionsFor(work, removed.ID)

	workTrack.ShiftFrom(removed.Position, delta)

	if groupID != "" {
		pl := plan{}

		for _, id := range work.Group(groupID) {
			mc, mt, findErr := findClip(work, id)
			if findErr != nil {
				return findErr
			}

			if mt == workTrack {
				continue // already rippled with its track
			}

			if mt.Locked {
				return Errorf(CodeLocked, "track %q is locked", mt.ID)
			}

			pl[id] = span{pos: mc.Position + delta, in: mc.InPoint, out: mc.OutPoint}
		}

		if applyErr := pl.apply(work); applyErr != nil {
			return applyErr
		}
	}

	*p = *work

	return nil
}

// dropTransitionsFor removes transitions referencing the given clip id.
func dropTransitionsFor(p *timeline.Project, clipID string) {
	for _, seq := range p.Sequences {
		kept := seq.Transitions[:0]

		for _, tn := range seq.Transitions {
			if tn.FromClipID != clipID && tn.ToClipID != clipID {
				kept = append(kept, tn)
			}
		}

		if len(kept) == 0 {
			seq.Transitions = nil
			continue
		}

		seq.Transitions = kept
	}
}
