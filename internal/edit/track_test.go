package edit_test

import (
	"testing"

	"github.com/avharness/cutline/internal/edit"
)

func TestInsertGap_ThenRemoveAllGapsRoundTrips(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "video0", "clip-2", "media-b", 50, 0, 29)

	err := edit.InsertGap{TrackID: "video0", Position: 50, Length: 40}.Apply(p)
	if err != nil {
		t.Fatalf("insert gap: %v", err)
	}

	if pos := p.Track("video0").Clip("clip-2").Position; pos != 90 {
		t.Fatalf("clip-2 at %d after gap, want 90", pos)
	}

	removed, err := edit.RemoveAllGaps{TrackID: "video0"}.Apply(p)
	if err != nil {
		t.Fatalf("remove gaps: %v", err)
	}

	if removed != 40 {
		t.Errorf("removed %d frames, want 40", removed)
	}

	if pos := p.Track("video0").Clip("clip-2").Position; pos != 50 {
		t.Errorf("clip-2 at %d after compaction, want 50", pos)
	}
}

func TestInsertGap_RejectsBadInput(t *testing.T) {
	t.Parallel()

	p := newProject(t)

	err := edit.InsertGap{TrackID: "video0", Position: -1, Length: 10}.Apply(p)
	wantCode(t, err, edit.CodeOutOfRange)

	err = edit.InsertGap{TrackID: "video0", Position: 0, Length: 0}.Apply(p)
	wantCode(t, err, edit.CodeInvalidInput)

	err = edit.InsertGap{TrackID: "nope", Position: 0, Length: 10}.Apply(p)
	wantCode(t, err, edit.CodeNotFound)
}

func TestStitchClips_AppendsAfterLastClipWithGaps(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)

	clips, err := edit.StitchClips{
		TrackID:     "video0",
		ProducerIDs: []string{"media-b", "media-a"},
		Gap:         10,
	}.Apply(p)
	if err != nil {
		t.Fatalf("stitch: %v", err)
	}

	if len(clips) != 2 {
		t.Fatalf("placed %d clips, want 2", len(clips))
	}

	// media-b runs 100 frames from the append point, then a 10 frame gap.
	if clips[0].Position != 50 || clips[0].Duration() != 100 {
		t.Errorf("first stitched clip at %d dur %d, want 50 dur 100", clips[0].Position, clips[0].Duration())
	}

	if clips[1].Position != 160 || clips[1].Duration() != 200 {
		t.Errorf("second stitched clip at %d dur %d, want 160 dur 200", clips[1].Position, clips[1].Duration())
	}

	assertNoOverlaps(t, p)
}

func TestStitchClips_ExplicitPositionAndDuration(t *testing.T) {
	t.Parallel()

	p := newProject(t)

	clips, err := edit.StitchClips{
		TrackID:        "video0",
		ProducerIDs:    []string{"media-a", "media-a", "media-a"},
		Position:       int64p(100),
		DurationFrames: int64p(25),
	}.Apply(p)
	if err != nil {
		t.Fatalf("stitch: %v", err)
	}

	want := []int64{100, 125, 150}
	for i, c := range clips {
		if c.Position != want[i] {
			t.Errorf("clip %d at %d, want %d", i, c.Position, want[i])
		}

		if c.Duration() != 25 {
			t.Errorf("clip %d duration %d, want 25", i, c.Duration())
		}
	}
}

func TestStitchClips_ConflictPlacesNothing(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-blocker", "media-a", 150, 0, 49)

	before := snapshot(t, p)

	// Second stitched clip would land on clip-blocker.
	_, err := edit.StitchClips{
		TrackID:        "video0",
		ProducerIDs:    []string{"media-b", "media-b"},
		Position:       int64p(0),
		DurationFrames: int64p(100),
	}.Apply(p)
	wantCode(t, err, edit.CodeOverlap)

	if string(before) != string(snapshot(t, p)) {
		t.Error("failed stitch left partial placements")
	}
}

func TestStitchClips_UnprobedProducerNeedsDuration(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	p.Producers["media-a"].Meta = nil

	_, err := edit.StitchClips{
		TrackID:     "video0",
		ProducerIDs: []string{"media-a"},
	}.Apply(p)
	wantCode(t, err, edit.CodeInvalidInput)

	clips, err := edit.StitchClips{
		TrackID:        "video0",
		ProducerIDs:    []string{"media-a"},
		DurationFrames: int64p(40),
	}.Apply(p)
	if err != nil {
		t.Fatalf("stitch with explicit duration: %v", err)
	}

	if clips[0].Duration() != 40 {
		t.Errorf("duration %d, want 40", clips[0].Duration())
	}
}
