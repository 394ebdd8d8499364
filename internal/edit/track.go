package edit

import (
	"github.com/avharness/cutline/internal/timeline"
)

// InsertGap shifts every clip at or after a position right by a length.
type InsertGap struct {
	TrackID  string
	Position int64
	Length   int64
}

// Apply opens the gap. A uniform right shift preserves relative order and
// spacing, so no overlap can result.
func (op InsertGap) Apply(p *timeline.Project) *Error {
	tr, err := findUnlockedTrack(p, op.TrackID)
	if err != nil {
		return err
	}

	if op.Position < 0 {
		return Errorf(CodeOutOfRange, "position %d is negative", op.Position)
	}

	if op.Length <= 0 {
		return Errorf(CodeInvalidInput, "gap length %d must be > 0", op.Length)
	}

	if gapErr := tr.InsertGap(op.Position, op.Length); gapErr != nil {
		return FromModel(gapErr)
	}

	return nil
}

// RemoveAllGaps left-shifts a track's clips to eliminate every uncovered
// interval, preserving relative order and durations.
type RemoveAllGaps struct {
	TrackID string
}

// Apply compacts the track and returns the number of gap frames removed.
func (op RemoveAllGaps) Apply(p *timeline.Project) (int64, *Error) {
	tr, err := findUnlockedTrack(p, op.TrackID)
	if err != nil {
		return 0, err
	}

	return tr.RemoveAllGaps(), nil
}

// StitchClips places a list of producers consecutively on a track.
type StitchClips struct {
	TrackID     string
	ProducerIDs []string
	// Position is the start frame; nil appends after the track's last clip.
	Position *int64
	// Gap is the blank frames between consecutive clips.
	Gap int64
	// DurationFrames overrides each clip's length; nil uses the full probed
	// producer length.
	DurationFrames *int64
}

// Apply stitches the clips on a working copy and swaps it in only when every
// placement succeeds; the first conflict aborts with no partial placement.
func (op StitchClips) Apply(p *timeline.Project) ([]*timeline.Clip, *Error) {
	tr, err := findUnlockedTrack(p, op.TrackID)
	if err != nil {
		return nil, err
	}

	if len(op.ProducerIDs) == 0 {
		return nil, Errorf(CodeInvalidInput, "at least one producer id is required")
	}

	if op.Gap < 0 {
		return nil, Errorf(CodeInvalidInput, "gap %d must be >= 0", op.Gap)
	}

	if op.DurationFrames != nil && *op.DurationFrames <= 0 {
		return nil, Errorf(CodeInvalidInput, "duration_frames %d must be > 0", *op.DurationFrames)
	}

	cursor := int64(0)

	switch {
	case op.Position != nil:
		if *op.Position < 0 {
			return nil, Errorf(CodeOutOfRange, "position %d is negative", *op.Position)
		}

		cursor = *op.Position
	default:
		for _, c := range tr.Clips {
			if c.End() > cursor {
				cursor = c.End()
			}
		}
	}

	work := p.Clone()

	workTrack := work.Track(tr.ID)

	placed := make([]*timeline.Clip, 0, len(op.ProducerIDs))

	for _, prodID := range op.ProducerIDs {
		prod, prodErr := findProducer(work, prodID)
		if prodErr != nil {
			return nil, prodErr
		}

		var dur int64

		switch {
		case op.DurationFrames != nil:
			dur = *op.DurationFrames
		default:
			bounds, ok := prod.Bounds()
			if !ok {
				return nil, Errorf(CodeInvalidInput, "producer %q has no probed duration; duration_frames is required", prodID)
			}

			dur = bounds
		}

		clip := &timeline.Clip{
			ID:         timeline.NewClipID(),
			ProducerID: prodID,
			Position:   cursor,
			InPoint:    0,
			OutPoint:   dur - 1,
		}

		if placeErr := workTrack.Place(clip); placeErr != nil {
			return nil, FromModel(placeErr)
		}

		placed = append(placed, clip)
		cursor += dur + op.Gap
	}

	*p = *work

	return placed, nil
}
