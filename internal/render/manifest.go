// Package render exposes a read-only manifest of the active sequence,
// sufficient for an encoding pipeline to drive rendering without re-parsing
// the raw document.
package render

import (
	"sort"

	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/timeline"
)

// Entry is one resolved clip placement.
type Entry struct {
	ClipID     string `json:"clip_id"`
	TrackID    string `json:"track_id"`
	TrackType  string `json:"track_type"`
	ProducerID string `json:"producer_id"`
	Resource   string `json:"resource"`
	Position   int64  `json:"position"`
	InPoint    int64  `json:"in_point"`
	OutPoint   int64  `json:"out_point"`
	Speed      string `json:"speed,omitempty"`
}

// Manifest is the flattened render view of the active sequence.
type Manifest struct {
	SequenceID string  `json:"sequence_id"`
	FPS        float64 `json:"fps"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	ZoneIn     int64   `json:"zone_in"`
	ZoneOut    int64   `json:"zone_out"`
	Duration   int64   `json:"duration"`
	Clips      []Entry `json:"clips"`
}

// Build assembles the manifest for the active sequence. Hidden tracks and
// muted audio tracks are excluded; clips are ordered by track then position.
func Build(p *timeline.Project) (*Manifest, *edit.Error) {
	seq, err := p.ActiveSequence()
	if err != nil {
		return nil, edit.Wrap(edit.CodeNotFound, err, "build manifest")
	}

	zoneOut := seq.ZoneOut
	if zoneOut == 0 {
		zoneOut = p.Duration()
	}

	m := &Manifest{
		SequenceID: seq.ID,
		FPS:        p.FPS,
		Width:      p.Width,
		Height:     p.Height,
		ZoneIn:     seq.ZoneIn,
		ZoneOut:    zoneOut,
		Duration:   p.Duration(),
	}

	for _, tr := range seq.Tracks {
		if tr.Hidden {
			continue
		}

		if tr.Type == timeline.TrackAudio && tr.Muted {
			continue
		}

		clips := append([]*timeline.Clip(nil), tr.Clips...)
		sort.Slice(clips, func(i, j int) bool { return clips[i].Position < clips[j].Position })

		for _, c := range clips {
			prod := p.Producer(c.ProducerID)
			if prod == nil {
				return nil, edit.Errorf(edit.CodeNotFound, "clip %q references missing producer %q", c.ID, c.ProducerID)
			}

			entry := Entry{
				ClipID:     c.ID,
				TrackID:    tr.ID,
				TrackType:  string(tr.Type),
				ProducerID: prod.ID,
				Resource:   prod.Resource,
				Position:   c.Position,
				InPoint:    c.InPoint,
				OutPoint:   c.OutPoint,
			}

			for _, e := range c.Effects {
				if e.Service == "timeremap" {
					entry.Speed = e.Properties["speed"]
				}
			}

			m.Clips = append(m.Clips, entry)
		}
	}

	return m, nil
}
