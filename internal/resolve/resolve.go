// Package resolve maps user-given selectors onto canonical model handles.
//
// Resolution is pure and ordered: exact id (producer, track, clip), then
// name lookup, then positional "track_id@frame". Multiple matches always
// fail AMBIGUOUS_REFERENCE listing every candidate; a selector is never
// silently resolved to the first match.
package resolve

import (
	"sort"
	"strconv"
	"strings"

	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/timeline"
)

// Kind tags what a handle points at.
type Kind string

// Handle kinds.
const (
	KindProducer Kind = "producer"
	KindTrack    Kind = "track"
	KindClip     Kind = "clip"
	KindSequence Kind = "sequence"
)

// Handle is a canonical reference into the model.
type Handle struct {
	Kind Kind
	ID   string
}

// String renders the handle as "kind:id", the form used in ambiguity lists.
func (h Handle) String() string {
	return string(h.Kind) + ":" + h.ID
}

// Resolve maps a selector to a handle against the given project.
func Resolve(p *timeline.Project, selector string) (Handle, *edit.Error) {
	if selector == "" {
		return Handle{}, edit.Errorf(edit.CodeInvalidInput, "empty selector")
	}

	if matches := byID(p, selector); len(matches) > 0 {
		return pick(selector, matches)
	}

	if matches := byName(p, selector); len(matches) > 0 {
		return pick(selector, matches)
	}

	if trackID, frame, ok := splitPositional(selector); ok {
		return byPosition(p, selector, trackID, frame)
	}

	return Handle{}, edit.Errorf(edit.CodeNotFound, "selector %q matches nothing", selector)
}

func pick(selector string, matches []Handle) (Handle, *edit.Error) {
	if len(matches) == 1 {
		return matches[0], nil
	}

	candidates := make([]string, len(matches))
	for i, h := range matches {
		candidates[i] = h.String()
	}

	return Handle{}, edit.Ambiguous(selector, candidates)
}

// byID collects exact id matches across every namespace. Ids are unique
// within a namespace but nothing stops a producer and a track from sharing
// one, so all namespaces are consulted.
func byID(p *timeline.Project, id string) []Handle {
	var matches []Handle

	if p.Producer(id) != nil {
		matches = append(matches, Handle{Kind: KindProducer, ID: id})
	}

	for _, seq := range p.Sequences {
		if seq.ID == id {
			matches = append(matches, Handle{Kind: KindSequence, ID: id})
		}
	}

	if p.Track(id) != nil {
		matches = append(matches, Handle{Kind: KindTrack, ID: id})
	}

	if _, _, ok := p.FindClip(id); ok {
		matches = append(matches, Handle{Kind: KindClip, ID: id})
	}

	return matches
}

func byName(p *timeline.Project, name string) []Handle {
	var matches []Handle

	for _, prod := range producersSorted(p) {
		if prod.Name == name {
			matches = append(matches, Handle{Kind: KindProducer, ID: prod.ID})
		}
	}

	for _, seq := range p.Sequences {
		if seq.Name == name {
			matches = append(matches, Handle{Kind: KindSequence, ID: seq.ID})
		}

		for _, tr := range seq.Tracks {
			if tr.Name == name {
				matches = append(matches, Handle{Kind: KindTrack, ID: tr.ID})
			}
		}
	}

	return matches
}

func byPosition(p *timeline.Project, selector, trackID string, frame int64) (Handle, *edit.Error) {
	tr := p.Track(trackID)
	if tr == nil {
		return Handle{}, edit.Errorf(edit.CodeNotFound, "selector %q: track %q not found", selector, trackID)
	}

	c := tr.ClipAt(frame)
	if c == nil {
		return Handle{}, edit.Errorf(edit.CodeNotFound, "selector %q: no clip covers frame %d on track %q", selector, frame, trackID)
	}

	return Handle{Kind: KindClip, ID: c.ID}, nil
}

// splitPositional parses "track_id@frame".
func splitPositional(selector string) (trackID string, frame int64, ok bool) {
	idx := strings.LastIndexByte(selector, '@')
	if idx <= 0 || idx == len(selector)-1 {
		return "", 0, false
	}

	frame, err := strconv.ParseInt(selector[idx+1:], 10, 64)
	if err != nil || frame < 0 {
		return "", 0, false
	}

	return selector[:idx], frame, true
}

// producersSorted walks producers in id order so candidate lists are stable.
func producersSorted(p *timeline.Project) []*timeline.Producer {
	ids := make([]string, 0, len(p.Producers))
	for id := range p.Producers {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	out := make([]*timeline.Producer, len(ids))
	for i, id := range ids {
		out[i] = p.Producers[id]
	}

	return out
}
