// Package check provides whole-model structural validation and structural
// diffing between two models. Both walk the document in one pass and emit
// complete, deterministic result lists; a caller never sees a partial pass.
package check

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/avharness/cutline/internal/timeline"
)

// Severity ranks a violation. Only errors block a transaction commit.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is one structural problem with its location in the tree.
type Violation struct {
	Severity Severity `json:"severity"`
	Kind     string   `json:"kind"` // project, sequence, track, clip, producer, transition, group
	ID       string   `json:"id,omitempty"`
	Message  string   `json:"message"`
}

// Options configures optional validation passes.
type Options struct {
	// CheckFiles verifies that file-backed producer resources exist on disk.
	CheckFiles bool
	// BaseDir anchors relative producer resources during file checks.
	BaseDir string
}

// Validate runs every structural check and returns the full violation list.
// An empty slice means the model is sound.
func Validate(p *timeline.Project, opts Options) []Violation {
	v := &visitor{}

	v.checkProject(p)
	v.checkTracks(p)
	v.checkClips(p)
	v.checkTransitions(p)
	v.checkGroups(p)

	if opts.CheckFiles {
		v.checkFiles(p, opts.BaseDir)
	}

	return v.out
}

// Errors filters a violation list down to commit-blocking entries.
func Errors(violations []Violation) []Violation {
	var out []Violation

	for _, violation := range violations {
		if violation.Severity == SeverityError {
			out = append(out, violation)
		}
	}

	return out
}

type visitor struct {
	out []Violation
}

func (v *visitor) errorf(kind, id, format string, args ...any) {
	v.out = append(v.out, Violation{Severity: SeverityError, Kind: kind, ID: id, Message: fmt.Sprintf(format, args...)})
}

func (v *visitor) warnf(kind, id, format string, args ...any) {
	v.out = append(v.out, Violation{Severity: SeverityWarning, Kind: kind, ID: id, Message: fmt.Sprintf(format, args...)})
}

func (v *visitor) checkProject(p *timeline.Project) {
	if p.FPS <= 0 {
		v.errorf("project", "", "fps %v must be > 0", p.FPS)
	}

	if len(p.Sequences) == 0 {
		v.errorf("project", "", "project has no sequences")
	}

	seen := map[string]bool{}

	for _, seq := range p.Sequences {
		if seq.ID == "" {
			v.errorf("sequence", "", "sequence has an empty id")
			continue
		}

		if seen[seq.ID] {
			v.errorf("sequence", seq.ID, "duplicate sequence id")
		}

		seen[seq.ID] = true
	}

	if p.ActiveSequenceID == "" || !seen[p.ActiveSequenceID] {
		v.errorf("project", p.ActiveSequenceID, "active sequence id does not resolve")
	}
}

func (v *visitor) checkTracks(p *timeline.Project) {
	seen := map[string]string{}

	for _, seq := range p.Sequences {
		for _, tr := range seq.Tracks {
			if tr.ID == "" {
				v.errorf("track", "", "sequence %q: track has an empty id", seq.ID)
				continue
			}

			if other, dup := seen[tr.ID]; dup {
				v.errorf("track", tr.ID, "track id also used in sequence %q", other)
			}

			seen[tr.ID] = seq.ID

			if tr.Type != timeline.TrackVideo && tr.Type != timeline.TrackAudio {
				v.errorf("track", tr.ID, "unknown track type %q", tr.Type)
			}
		}
	}
}

func (v *visitor) checkClips(p *timeline.Project) {
	seenClip := map[string]bool{}

	for _, seq := range p.Sequences {
		for _, tr := range seq.Tracks {
			var prevEnd int64

			var prevID string

			sorted := append([]*timeline.Clip(nil), tr.Clips...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

			for _, c := range sorted {
				if c.ID == "" {
					v.errorf("clip", "", "track %q: clip has an empty id", tr.ID)
				} else if seenClip[c.ID] {
					v.errorf("clip", c.ID, "duplicate clip instance id")
				}

				seenClip[c.ID] = true

				if p.Producer(c.ProducerID) == nil {
					v.errorf("clip", c.ID, "references missing producer %q", c.ProducerID)
				} else if bounds, ok := p.Producer(c.ProducerID).Bounds(); ok && c.OutPoint > bounds-1 && !retimed(c) {
					v.errorf("clip", c.ID, "out_point %d exceeds producer %q bounds (%d frames)", c.OutPoint, c.ProducerID, bounds)
				}

				if c.InPoint < 0 {
					v.errorf("clip", c.ID, "in_point %d is negative", c.InPoint)
				}

				if c.OutPoint < c.InPoint {
					v.errorf("clip", c.ID, "out_point %d is before in_point %d", c.OutPoint, c.InPoint)
				}

				if c.Position < 0 {
					v.errorf("clip", c.ID, "position %d is negative", c.Position)
				}

				if prevID != "" && c.Position < prevEnd {
					v.errorf("track", tr.ID, "clips %q and %q overlap", prevID, c.ID)
				}

				if c.End() > prevEnd {
					prevEnd = c.End()
				}

				prevID = c.ID
			}
		}
	}
}

func (v *visitor) checkTransitions(p *timeline.Project) {
	for _, seq := range p.Sequences {
		for _, tn := range seq.Transitions {
			if tn.In < 0 || tn.Out < tn.In {
				v.errorf("transition", tn.ID, "invalid range [%d, %d]", tn.In, tn.Out)
			}

			for _, clipID := range []string{tn.FromClipID, tn.ToClipID} {
				if _, _, ok := p.FindClip(clipID); !ok {
					v.errorf("transition", tn.ID, "references missing clip %q", clipID)
				}
			}
		}
	}
}

func (v *visitor) checkGroups(p *timeline.Project) {
	groupIDs := make([]string, 0, len(p.Groups))
	for id := range p.Groups {
		groupIDs = append(groupIDs, id)
	}

	sort.Strings(groupIDs)

	for _, groupID := range groupIDs {
		members := p.Groups[groupID]

		if len(members) < 2 {
			v.errorf("group", groupID, "group has %d members; needs at least 2", len(members))
		}

		for _, clipID := range members {
			c, _, ok := p.FindClip(clipID)
			if !ok {
				v.errorf("group", groupID, "member clip %q does not exist", clipID)
				continue
			}

			if c.GroupID != groupID {
				v.errorf("group", groupID, "member clip %q carries group id %q", clipID, c.GroupID)
			}
		}
	}

	for _, seq := range p.Sequences {
		for _, tr := range seq.Tracks {
			for _, c := range tr.Clips {
				if c.GroupID == "" {
					continue
				}

				if !contains(p.Groups[c.GroupID], c.ID) {
					v.errorf("clip", c.ID, "group id %q is not in the group index", c.GroupID)
				}
			}
		}
	}
}

// checkFiles warns about file-backed producer resources that do not exist.
// Synthetic producers and URL resources are skipped.
func (v *visitor) checkFiles(p *timeline.Project, baseDir string) {
	ids := make([]string, 0, len(p.Producers))
	for id := range p.Producers {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		prod := p.Producers[id]

		if prod.Synthetic() {
			continue
		}

		if strings.Contains(prod.Resource, "://") {
			continue
		}

		path := prod.Resource
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}

		if _, err := os.Stat(path); err != nil {
			v.warnf("producer", prod.ID, "media file not found: %s", prod.Resource)
		}
	}
}

// retimed reports whether the clip carries a time-remap effect. A retimed
// clip's out point measures rescaled playback, not source frames, so producer
// bounds do not constrain it.
func retimed(c *timeline.Clip) bool {
	for _, e := range c.Effects {
		if e.Service == "timeremap" {
			return true
		}
	}

	return false
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}

	return false
}
