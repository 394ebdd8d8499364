package edit

import (
	"sort"

	"github.com/avharness/cutline/internal/timeline"
)

// findTrack resolves a track id to a track on the project.
func findTrack(p *timeline.Project, id string) (*timeline.Track, *Error) {
	tr := p.Track(id)
	if tr == nil {
		return nil, Errorf(CodeNotFound, "track %q not found", id)
	}

	return tr, nil
}

// findUnlockedTrack resolves a track and rejects locked ones.
func findUnlockedTrack(p *timeline.Project, id string) (*timeline.Track, *Error) {
	tr, err := findTrack(p, id)
	if err != nil {
		return nil, err
	}

	if tr.Locked {
		return nil, Errorf(CodeLocked, "track %q is locked", id)
	}

	return tr, nil
}

// findClip resolves a clip instance id to the clip and its track.
func findClip(p *timeline.Project, id string) (*timeline.Clip, *timeline.Track, *Error) {
	c, tr, ok := p.FindClip(id)
	if !ok {
		return nil, nil, Errorf(CodeNotFound, "clip %q not found", id)
	}

	return c, tr, nil
}

// findProducer resolves a producer id.
func findProducer(p *timeline.Project, id string) (*timeline.Producer, *Error) {
	prod := p.Producer(id)
	if prod == nil {
		return nil, Errorf(CodeNotFound, "producer %q not found", id)
	}

	return prod, nil
}

// span is a planned placement for one clip: position plus source in/out.
type span struct {
	pos, in, out int64
}

// plan collects pending placements keyed by clip id. Operations that move or
// retrim several clips validate the whole plan before touching the model, so
// a conflicting member leaves the project byte-identical to before.
type plan map[string]span

// apply validates every planned placement against the tracks it touches and
// then writes all of them. Validation covers negative positions, collapsed
// durations, and per-track overlap; failure applies nothing.
func (pl plan) apply(p *timeline.Project) *Error {
	type placed struct {
		id       string
		pos, dur int64
	}

	tracks := map[*timeline.Track][]placed{}

	for _, seq := range p.Sequences {
		for _, tr := range seq.Tracks {
			touched := false

			intervals := make([]placed, 0, len(tr.Clips))

			for _, c := range tr.Clips {
				pos, in, out := c.Position, c.InPoint, c.OutPoint
				if s, ok := pl[c.ID]; ok {
					pos, in, out = s.pos, s.in, s.out
					touched = true
				}

				dur := out - in + 1

				if pos < 0 {
					return Errorf(CodeOutOfRange, "clip %q: position %d is negative", c.ID, pos)
				}

				if dur <= 0 {
					return Errorf(CodeOutOfRange, "clip %q: duration %d", c.ID, dur)
				}

				intervals = append(intervals, placed{id: c.ID, pos: pos, dur: dur})
			}

			if touched {
				tracks[tr] = intervals
			}
		}
	}

	for tr, intervals := range tracks {
		sort.Slice(intervals, func(i, j int) bool {
			return intervals[i].pos < intervals[j].pos
		})

		for i := 1; i < len(intervals); i++ {
			prev, curr := intervals[i-1], intervals[i]
			if curr.pos < prev.pos+prev.dur {
				return Errorf(CodeOverlap, "track %q: clips %q and %q would overlap", tr.ID, prev.id, curr.id)
			}
		}
	}

	for tr := range tracks {
		for _, c := range tr.Clips {
			if s, ok := pl[c.ID]; ok {
				c.Position, c.InPoint, c.OutPoint = s.pos, s.in, s.out
			}
		}

		tr.Resort()
	}

	return nil
}
