// Package timeline holds the canonical in-memory project document: sequences,
// tracks, clips, the producer bin, groups, and effect/transition attachments.
//
// The model is a plain tree with validated accessors and low-level mutators.
// Higher-level edit semantics (ripple, split, grouped moves) live in the edit
// package; transactional publication lives in the txn package. Every mutator
// here is all-or-nothing: on error the receiver is unchanged.
package timeline

import (
	"errors"
	"fmt"
	"slices"
)

// TrackType distinguishes video from audio tracks.
type TrackType string

// Track types.
const (
	TrackVideo TrackType = "video"
	TrackAudio TrackType = "audio"
)

// Sentinel errors returned by model accessors and mutators. The edit package
// maps these onto its coded error taxonomy.
var (
	ErrNotFound  = errors.New("not found")
	ErrOverlap   = errors.New("clip interval overlaps")
	ErrLocked    = errors.New("track is locked")
	ErrDuplicate = errors.New("id already exists")
	ErrInvalid   = errors.New("invalid value")
)

// Project is the document root. Sequences are ordered; exactly one is active.
// Producers are keyed by id and referenced from clips and the bin tree.
// Groups is a set-valued index (group id -> sorted member clip ids); a clip
// belongs to at most one group.
type Project struct {
	FPS              float64              `json:"fps"`
	Width            int                  `json:"width"`
	Height           int                  `json:"height"`
	ActiveSequenceID string               `json:"active_sequence_id"`
	Sequences        []*Sequence          `json:"sequences"`
	Bin              *BinFolder           `json:"bin"`
	Producers        map[string]*Producer `json:"producers"`
	Groups           map[string][]string  `json:"groups,omitempty"`
}

// Sequence is an ordered set of tracks plus the transitions between their
// clips. Track ids are unique within a sequence. ZoneIn/ZoneOut scope
// rendering; both zero means "whole sequence".
type Sequence struct {
	ID          string        `json:"id"`
	Name        string        `json:"name,omitempty"`
	Tracks      []*Track      `json:"tracks"`
	Transitions []*Transition `json:"transitions,omitempty"`
	ZoneIn      int64         `json:"zone_in,omitempty"`
	ZoneOut     int64         `json:"zone_out,omitempty"`
}

// Track carries non-overlapping clips kept sorted by position.
type Track struct {
	ID     string    `json:"id"`
	Name   string    `json:"name,omitempty"`
	Type   TrackType `json:"type"`
	Muted  bool      `json:"muted,omitempty"`
	Locked bool      `json:"locked,omitempty"`
	Hidden bool      `json:"hidden,omitempty"`
	Clips  []*Clip   `json:"clips"`
}

// Clip is a placed instance of a producer. InPoint/OutPoint are inclusive
// frame indexes into the producer (OutPoint >= InPoint). Position is the
// first timeline frame the clip occupies; the occupied interval is
// [Position, Position+Duration).
type Clip struct {
	ID         string    `json:"id"`
	ProducerID string    `json:"producer_id"`
	Position   int64     `json:"position"`
	InPoint    int64     `json:"in_point"`
	OutPoint   int64     `json:"out_point"`
	GroupID    string    `json:"group_id,omitempty"`
	Effects    []*Effect `json:"effects,omitempty"`
}

// Duration is the number of timeline frames the clip covers.
func (c *Clip) Duration() int64 {
	return c.OutPoint - c.InPoint + 1
}

// End is the first frame after the clip (exclusive bound of its interval).
func (c *Clip) End() int64 {
	return c.Position + c.Duration()
}

// Overlaps reports whether the clip's interval intersects [pos, pos+dur).
func (c *Clip) Overlaps(pos, dur int64) bool {
	return pos < c.End() && c.Position < pos+dur
}

// Producer is a bin asset: an external media reference or a synthetic source
// (Resource like "color:#000000" or "text:..."). Meta is the externally
// supplied probe cache; nil means unprobed.
type Producer struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Resource string `json:"resource"`
	Meta     *Meta  `json:"meta,omitempty"`
}

// Meta is cached media metadata supplied by the probe collaborator.
type Meta struct {
	DurationFrames int64   `json:"duration_frames"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	FPS            float64 `json:"fps,omitempty"`
}

// Bounds returns the producer's frame count when known.
func (p *Producer) Bounds() (int64, bool) {
	if p.Meta == nil || p.Meta.DurationFrames <= 0 {
		return 0, false
	}

	return p.Meta.DurationFrames, true
}

// Synthetic reports whether the producer is generated rather than file-backed.
func (p *Producer) Synthetic() bool {
	switch {
	case p.Resource == "":
		return true
	case len(p.Resource) > 6 && p.Resource[:6] == "color:":
		return true
	case len(p.Resource) > 5 && p.Resource[:5] == "text:":
		return true
	}

	return false
}

// BinFolder is a tree node grouping producers by id reference.
type BinFolder struct {
	Name        string       `json:"name"`
	Folders     []*BinFolder `json:"folders,omitempty"`
	ProducerIDs []string     `json:"producer_ids,omitempty"`
}

// Effect is attached to a clip: a service name, a property map, and optional
// per-parameter keyframe curves.
type Effect struct {
	ID         string                `json:"id"`
	Service    string                `json:"service"`
	Properties map[string]string     `json:"properties,omitempty"`
	Keyframes  map[string][]Keyframe `json:"keyframes,omitempty"`
}

// Keyframe is one point on an effect parameter curve.
type Keyframe struct {
	Frame int64   `json:"frame"`
	Value float64 `json:"value"`
}

// Transition joins a clip pair over [In, Out].
type Transition struct {
	ID         string            `json:"id"`
	Service    string            `json:"service"`
	FromClipID string            `json:"from_clip_id"`
	ToClipID   string            `json:"to_clip_id"`
	In         int64             `json:"in"`
	Out        int64             `json:"out"`
	Properties map[string]string `json:"properties,omitempty"`
}

// New creates an empty project with the given global properties and a single
// active sequence containing one video and one audio track.
func New(fps float64, width, height int) *Project {
	seq := &Sequence{
		ID: "sequence0",
		Tracks: []*Track{
			{ID: "video0", Name: "Video 1", Type: TrackVideo, Clips: []*Clip{}},
			{ID: "audio0", Name: "Audio 1", Type: TrackAudio, Clips: []*Clip{}},
		},
	}

	return &Project{
		FPS:              fps,
		Width:            width,
		Height:           height,
		ActiveSequenceID: seq.ID,
		Sequences:        []*Sequence{seq},
		Bin:              &BinFolder{Name: "bin"},
		Producers:        map[string]*Producer{},
	}
}

// ActiveSequence returns the sequence named by ActiveSequenceID.
func (p *Project) ActiveSequence() (*Sequence, error) {
	seq := p.Sequence(p.ActiveSequenceID)
	if seq == nil {
		return nil, fmt.Errorf("active sequence %q: %w", p.ActiveSequenceID, ErrNotFound)
	}

	return seq, nil
}

// Sequence returns the sequence with the given id, or nil.
func (p *Project) Sequence(id string) *Sequence {
	for _, seq := range p.Sequences {
		if seq.ID == id {
			return seq
		}
	}

	return nil
}

// Track returns the track with the given id across all sequences, or nil.
func (p *Project) Track(id string) *Track {
	for _, seq := range p.Sequences {
		for _, tr := range seq.Tracks {
			if tr.ID == id {
				return tr
			}
		}
	}

	return nil
}

// Producer returns the producer with the given id, or nil.
func (p *Project) Producer(id string) *Producer {
	return p.Producers[id]
}

// FindClip locates a clip by instance id and returns it with its track.
func (p *Project) FindClip(id string) (*Clip, *Track, bool) {
	for _, seq := range p.Sequences {
		for _, tr := range seq.Tracks {
			for _, c := range tr.Clips {
				if c.ID == id {
					return c, tr, true
				}
			}
		}
	}

	return nil, nil, false
}

// SequenceOf returns the sequence containing the given track, or nil.
func (p *Project) SequenceOf(tr *Track) *Sequence {
	for _, seq := range p.Sequences {
		if slices.Contains(seq.Tracks, tr) {
			return seq
		}
	}

	return nil
}

// Duration is the number of frames up to the last clip end across the active
// sequence, or 0 for an empty timeline.
func (p *Project) Duration() int64 {
	seq := p.Sequence(p.ActiveSequenceID)
	if seq == nil {
		return 0
	}

	var max int64

	for _, tr := range seq.Tracks {
		for _, c := range tr.Clips {
			if c.End() > max {
				max = c.End()
			}
		}
	}

	return max
}
