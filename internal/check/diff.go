package check

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/avharness/cutline/internal/timeline"
)

// ChangeType classifies one diff entry.
type ChangeType string

// Change types.
const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// FieldDelta is one changed field on a modified entity.
type FieldDelta struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// Entry is one structural change keyed by stable entity id.
type Entry struct {
	Type   ChangeType   `json:"type"`
	Kind   string       `json:"kind"` // producer, track, clip, transition, project
	ID     string       `json:"id"`
	Fields []FieldDelta `json:"fields,omitempty"`
}

// Report is the ordered structural diff between two models. Producer and bin
// comparisons are order-insensitive; clip entries are ordered by timeline
// position (not storage order) within their tracks.
type Report struct {
	Added    []Entry `json:"added"`
	Removed  []Entry `json:"removed"`
	Modified []Entry `json:"modified"`
}

// Total counts every change in the report.
func (r *Report) Total() int {
	return len(r.Added) + len(r.Removed) + len(r.Modified)
}

// Empty reports whether the two models were structurally identical.
func (r *Report) Empty() bool {
	return r.Total() == 0
}

// Diff compares two models structurally by stable id.
func Diff(from, to *timeline.Project) *Report {
	r := &Report{}

	diffProject(r, from, to)
	diffProducers(r, from, to)
	diffTracks(r, from, to)
	diffClips(r, from, to)
	diffTransitions(r, from, to)

	return r
}

func diffProject(r *Report, from, to *timeline.Project) {
	var fields []FieldDelta

	fields = appendDelta(fields, "fps", fmt.Sprintf("%g", from.FPS), fmt.Sprintf("%g", to.FPS))
	fields = appendDelta(fields, "width", fmt.Sprint(from.Width), fmt.Sprint(to.Width))
	fields = appendDelta(fields, "height", fmt.Sprint(from.Height), fmt.Sprint(to.Height))
	fields = appendDelta(fields, "active_sequence_id", from.ActiveSequenceID, to.ActiveSequenceID)

	if len(fields) > 0 {
		r.Modified = append(r.Modified, Entry{Type: ChangeModified, Kind: "project", ID: "", Fields: fields})
	}
}

func diffProducers(r *Report, from, to *timeline.Project) {
	ids := unionKeys(keysOf(from.Producers), keysOf(to.Producers))

	for _, id := range ids {
		a, b := from.Producers[id], to.Producers[id]

		switch {
		case a == nil:
			r.Added = append(r.Added, Entry{Type: ChangeAdded, Kind: "producer", ID: id})
		case b == nil:
			r.Removed = append(r.Removed, Entry{Type: ChangeRemoved, Kind: "producer", ID: id})
		default:
			var fields []FieldDelta

			fields = appendDelta(fields, "name", a.Name, b.Name)
			fields = appendDelta(fields, "resource", a.Resource, b.Resource)
			fields = appendDelta(fields, "meta", jsonString(a.Meta), jsonString(b.Meta))

			if len(fields) > 0 {
				r.Modified = append(r.Modified, Entry{Type: ChangeModified, Kind: "producer", ID: id, Fields: fields})
			}
		}
	}
}

func diffTracks(r *Report, from, to *timeline.Project) {
	fromTracks := trackIndex(from)
	toTracks := trackIndex(to)

	for _, id := range unionKeys(keysOf(fromTracks), keysOf(toTracks)) {
		a, b := fromTracks[id], toTracks[id]

		switch {
		case a == nil:
			r.Added = append(r.Added, Entry{Type: ChangeAdded, Kind: "track", ID: id})
		case b == nil:
			r.Removed = append(r.Removed, Entry{Type: ChangeRemoved, Kind: "track", ID: id})
		default:
			var fields []FieldDelta

			fields = appendDelta(fields, "name", a.Name, b.Name)
			fields = appendDelta(fields, "type", string(a.Type), string(b.Type))
			fields = appendDelta(fields, "muted", fmt.Sprint(a.Muted), fmt.Sprint(b.Muted))
			fields = appendDelta(fields, "locked", fmt.Sprint(a.Locked), fmt.Sprint(b.Locked))
			fields = appendDelta(fields, "hidden", fmt.Sprint(a.Hidden), fmt.Sprint(b.Hidden))

			if len(fields) > 0 {
				r.Modified = append(r.Modified, Entry{Type: ChangeModified, Kind: "track", ID: id, Fields: fields})
			}
		}
	}
}

type placedClip struct {
	clip    *timeline.Clip
	trackID string
}

func diffClips(r *Report, from, to *timeline.Project) {
	fromClips := clipIndex(from)
	toClips := clipIndex(to)

	ids := unionKeys(keysOf(fromClips), keysOf(toClips))

	// Order entries by the clip's timeline placement in the newer model
	// (falling back to the older one for removals).
	sort.SliceStable(ids, func(i, j int) bool {
		return clipSortKey(fromClips, toClips, ids[i]) < clipSortKey(fromClips, toClips, ids[j])
	})

	for _, id := range ids {
		a, aok := fromClips[id]

		b, bok := toClips[id]

		switch {
		case !aok:
			r.Added = append(r.Added, Entry{Type: ChangeAdded, Kind: "clip", ID: id})
		case !bok:
			r.Removed = append(r.Removed, Entry{Type: ChangeRemoved, Kind: "clip", ID: id})
		default:
			var fields []FieldDelta

			fields = appendDelta(fields, "track_id", a.trackID, b.trackID)
			fields = appendDelta(fields, "producer_id", a.clip.ProducerID, b.clip.ProducerID)
			fields = appendDelta(fields, "position", fmt.Sprint(a.clip.Position), fmt.Sprint(b.clip.Position))
			fields = appendDelta(fields, "in_point", fmt.Sprint(a.clip.InPoint), fmt.Sprint(b.clip.InPoint))
			fields = appendDelta(fields, "out_point", fmt.Sprint(a.clip.OutPoint), fmt.Sprint(b.clip.OutPoint))
			fields = appendDelta(fields, "group_id", a.clip.GroupID, b.clip.GroupID)
			fields = appendDelta(fields, "effects", jsonString(a.clip.Effects), jsonString(b.clip.Effects))

			if len(fields) > 0 {
				r.Modified = append(r.Modified, Entry{Type: ChangeModified, Kind: "clip", ID: id, Fields: fields})
			}
		}
	}
}

func diffTransitions(r *Report, from, to *timeline.Project) {
	fromIdx := transitionIndex(from)
	toIdx := transitionIndex(to)

	for _, id := range unionKeys(keysOf(fromIdx), keysOf(toIdx)) {
		a, b := fromIdx[id], toIdx[id]

		switch {
		case a == nil:
			r.Added = append(r.Added, Entry{Type: ChangeAdded, Kind: "transition", ID: id})
		case b == nil:
			r.Removed = append(r.Removed, Entry{Type: ChangeRemoved, Kind: "transition", ID: id})
		default:
			var fields []FieldDelta

			fields = appendDelta(fields, "service", a.Service, b.Service)
			fields = appendDelta(fields, "from_clip_id", a.FromClipID, b.FromClipID)
			fields = appendDelta(fields, "to_clip_id", a.ToClipID, b.ToClipID)
			fields = appendDelta(fields, "in", fmt.Sprint(a.In), fmt.Sprint(b.In))
			fields = appendDelta(fields, "out", fmt.Sprint(a.Out), fmt.Sprint(b.Out))
			fields = appendDelta(fields, "properties", jsonString(a.Properties), jsonString(b.Properties))

			if len(fields) > 0 {
				r.Modified = append(r.Modified, Entry{Type: ChangeModified, Kind: "transition", ID: id, Fields: fields})
			}
		}
	}
}

func appendDelta(fields []FieldDelta, name, oldVal, newVal string) []FieldDelta {
	if oldVal == newVal {
		return fields
	}

	return append(fields, FieldDelta{Field: name, Old: oldVal, New: newVal})
}

func trackIndex(p *timeline.Project) map[string]*timeline.Track {
	out := map[string]*timeline.Track{}

	for _, seq := range p.Sequences {
		for _, tr := range seq.Tracks {
			out[tr.ID] = tr
		}
	}

	return out
}

func clipIndex(p *timeline.Project) map[string]placedClip {
	out := map[string]placedClip{}

	for _, seq := range p.Sequences {
		for _, tr := range seq.Tracks {
			for _, c := range tr.Clips {
				out[c.ID] = placedClip{clip: c, trackID: tr.ID}
			}
		}
	}

	return out
}

func transitionIndex(p *timeline.Project) map[string]*timeline.Transition {
	out := map[string]*timeline.Transition{}

	for _, seq := range p.Sequences {
		for _, tn := range seq.Transitions {
			out[tn.ID] = tn
		}
	}

	return out
}

func clipSortKey(from map[string]placedClip, to map[string]placedClip, id string) string {
	pc, ok := to[id]
	if !ok {
		pc = from[id]
	}

	return fmt.Sprintf("%s/%012d/%s", pc.trackID, pc.clip.Position, id)
}

func jsonString(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(data)
}

func keysOf[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}

func unionKeys(a, b []string) []string {
	seen := map[string]bool{}

	var out []string

	for _, k := range append(a, b...) {
		if !seen[k] {
			seen[k] = true

			out = append(out, k)
		}
	}

	sort.Strings(out)

	return out
}
