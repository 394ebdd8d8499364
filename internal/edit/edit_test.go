package edit_test

import (
	"testing"

	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/timeline"
)

// newProject builds a 30fps project with two probed producers and an extra
// video track for cross-track cases.
func newProject(t *testing.T) *timeline.Project {
	t.Helper()

	p := timeline.New(30, 1920, 1080)

	seq, err := p.ActiveSequence()
	if err != nil {
		t.Fatalf("active sequence: %v", err)
	}

	seq.Tracks = append(seq.Tracks, &timeline.Track{
		ID: "video1", Name: "Video 2", Type: timeline.TrackVideo, Clips: []*timeline.Clip{},
	})

	producers := []*timeline.Producer{
		{ID: "media-a", Name: "Interview A", Resource: "media/a.mp4", Meta: &timeline.Meta{DurationFrames: 200}},
		{ID: "media-b", Name: "Broll B", Resource: "media/b.mp4", Meta: &timeline.Meta{DurationFrames: 100}},
	}

	for _, prod := range producers {
		if addErr := p.AddProducer(prod); addErr != nil {
			t.Fatalf("add producer %s: %v", prod.ID, addErr)
		}
	}

	return p
}

func place(t *testing.T, p *timeline.Project, trackID, clipID, producerID string, pos, in, out int64) *timeline.Clip {
	t.Helper()

	c := &timeline.Clip{ID: clipID, ProducerID: producerID, Position: pos, InPoint: in, OutPoint: out}

	if err := p.Track(trackID).Place(c); err != nil {
		t.Fatalf("place %s on %s: %v", clipID, trackID, err)
	}

	return c
}

func wantCode(t *testing.T, err *edit.Error, code edit.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}

	if err.Code != code {
		t.Fatalf("expected %s, got %s (%s)", code, err.Code, err.Message)
	}
}

// assertNoOverlaps fails if any track in any sequence holds intersecting
// clip intervals. Every committed edit must maintain this.
func assertNoOverlaps(t *testing.T, p *timeline.Project) {
	t.Helper()

	for _, seq := range p.Sequences {
		for _, tr := range seq.Tracks {
			for i, a := range tr.Clips {
				for _, b := range tr.Clips[i+1:] {
					if a.Overlaps(b.Position, b.Duration()) {
						t.Fatalf("track %s: clip %s [%d,%d) overlaps %s [%d,%d)",
							tr.ID, a.ID, a.Position, a.End(), b.ID, b.Position, b.End())
					}
				}
			}
		}
	}
}

func snapshot(t *testing.T, p *timeline.Project) []byte {
	t.Helper()

	data, err := p.Canonical()
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}

	return data
}
