package render_test

import (
	"testing"

	"github.com/avharness/cutline/internal/render"
	"github.com/avharness/cutline/internal/timeline"
)

func newProject(t *testing.T) *timeline.Project {
	t.Helper()

	p := timeline.New(30, 1920, 1080)

	err := p.AddProducer(&timeline.Producer{
		ID:       "media-a",
		Name:     "Interview A",
		Resource: "media/a.mp4",
		Meta:     &timeline.Meta{DurationFrames: 200},
	})
	if err != nil {
		t.Fatalf("add producer: %v", err)
	}

	return p
}

func place(t *testing.T, p *timeline.Project, trackID, clipID string, pos, in, out int64) *timeline.Clip {
	t.Helper()

	c := &timeline.Clip{ID: clipID, ProducerID: "media-a", Position: pos, InPoint: in, OutPoint: out}

	if err := p.Track(trackID).Place(c); err != nil {
		t.Fatalf("place %s: %v", clipID, err)
	}

	return c
}

func TestBuild_FlattensActiveSequence(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-2", 50, 0, 29)
	place(t, p, "video0", "clip-1", 0, 0, 49)
	place(t, p, "audio0", "clip-3", 0, 0, 79)

	m, err := render.Build(p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if m.FPS != 30 || m.Width != 1920 || m.Height != 1080 {
		t.Errorf("header: %+v", m)
	}

	if m.ZoneIn != 0 || m.ZoneOut != p.Duration() || m.Duration != 80 {
		t.Errorf("zone/duration: in=%d out=%d dur=%d", m.ZoneIn, m.ZoneOut, m.Duration)
	}

	if len(m.Clips) != 3 {
		t.Fatalf("clips: %+v", m.Clips)
	}

	// Track order, then position order inside each track.
	if m.Clips[0].ClipID != "clip-1" || m.Clips[1].ClipID != "clip-2" || m.Clips[2].ClipID != "clip-3" {
		t.Errorf("order: %s, %s, %s", m.Clips[0].ClipID, m.Clips[1].ClipID, m.Clips[2].ClipID)
	}

	if m.Clips[0].Resource != "media/a.mp4" || m.Clips[0].TrackType != "video" {
		t.Errorf("entry: %+v", m.Clips[0])
	}
}

func TestBuild_ExcludesHiddenAndMutedTracks(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", 0, 0, 49)
	place(t, p, "audio0", "clip-2", 0, 0, 49)

	p.Track("video0").Hidden = true
	p.Track("audio0").Muted = true

	m, err := render.Build(p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(m.Clips) != 0 {
		t.Fatalf("hidden/muted tracks leaked into the manifest: %+v", m.Clips)
	}
}

func TestBuild_MutedVideoTrackStillRenders(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", 0, 0, 49)

	p.Track("video0").Muted = true

	m, err := render.Build(p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(m.Clips) != 1 {
		t.Fatalf("muted video track dropped from the manifest: %+v", m.Clips)
	}
}

func TestBuild_CarriesSpeedFromTimeRemap(t *testing.T) {
	t.Parallel()

	p := newProject(t)

	c := place(t, p, "video0", "clip-1", 0, 0, 49)
	c.Effects = append(c.Effects, &timeline.Effect{
		ID:         "fx-speed",
		Service:    "timeremap",
		Properties: map[string]string{"speed": "0.5"},
	})

	m, err := render.Build(p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if m.Clips[0].Speed != "0.5" {
		t.Errorf("speed = %q, want %q", m.Clips[0].Speed, "0.5")
	}
}

func TestBuild_ZoneRespectedWhenSet(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", 0, 0, 99)

	seq, err := p.ActiveSequence()
	if err != nil {
		t.Fatalf("active sequence: %v", err)
	}

	seq.ZoneIn = 10
	seq.ZoneOut = 60

	m, buildErr := render.Build(p)
	if buildErr != nil {
		t.Fatalf("build: %v", buildErr)
	}

	if m.ZoneIn != 10 || m.ZoneOut != 60 {
		t.Errorf("zone: in=%d out=%d", m.ZoneIn, m.ZoneOut)
	}
}

func TestBuild_MissingProducerFails(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", 0, 0, 49)

	delete(p.Producers, "media-a")

	if _, err := render.Build(p); err == nil {
		t.Fatal("expected a missing-producer failure")
	}
}
