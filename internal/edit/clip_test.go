package edit_test

import (
	"testing"

	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/timeline"
)

func TestAddClip_DefaultsToFullProducerLength(t *testing.T) {
	t.Parallel()

	p := newProject(t)

	clip, err := edit.AddClip{TrackID: "video0", ProducerID: "media-b", Position: 10}.Apply(p)
	if err != nil {
		t.Fatalf("add clip: %v", err)
	}

	if clip.Duration() != 100 {
		t.Errorf("duration %d, want full producer length 100", clip.Duration())
	}

	if clip.InPoint != 0 || clip.OutPoint != 99 {
		t.Errorf("source range [%d,%d], want [0,99]", clip.InPoint, clip.OutPoint)
	}
}

func TestAddClip_RequiresOutPointForUnprobedProducer(t *testing.T) {
	t.Parallel()

	p := newProject(t)

	if err := p.AddProducer(&timeline.Producer{ID: "media-raw", Resource: "media/raw.mov"}); err != nil {
		t.Fatalf("add producer: %v", err)
	}

	_, err := edit.AddClip{TrackID: "video0", ProducerID: "media-raw", Position: 0}.Apply(p)
	wantCode(t, err, edit.CodeInvalidInput)

	out := int64(49)

	clip, err := edit.AddClip{TrackID: "video0", ProducerID: "media-raw", Position: 0, OutPoint: &out}.Apply(p)
	if err != nil {
		t.Fatalf("add clip with explicit out: %v", err)
	}

	if clip.Duration() != 50 {
		t.Errorf("duration %d, want 50", clip.Duration())
	}
}

func TestAddClip_RejectsOutPastProducerBounds(t *testing.T) {
	t.Parallel()

	p := newProject(t)

	out := int64(100) // media-b has 100 frames, so 99 is the last valid out

	_, err := edit.AddClip{TrackID: "video0", ProducerID: "media-b", Position: 0, OutPoint: &out}.Apply(p)
	wantCode(t, err, edit.CodeOutOfRange)
}

func TestAddClip_RejectsOverlapLeavingTrackUnchanged(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)

	before := snapshot(t, p)

	out := int64(29)

	_, err := edit.AddClip{TrackID: "video0", ProducerID: "media-b", Position: 30, OutPoint: &out}.Apply(p)
	wantCode(t, err, edit.CodeOverlap)

	if string(before) != string(snapshot(t, p)) {
		t.Error("model changed on failed add")
	}
}

func TestAddClip_RejectsLockedTrack(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	p.Track("video0").Locked = true

	_, err := edit.AddClip{TrackID: "video0", ProducerID: "media-b", Position: 0}.Apply(p)
	wantCode(t, err, edit.CodeLocked)
}

func TestMoveClip_SamePositionIsIdempotentNoOp(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 40, 0, 49)

	changed, err := edit.MoveClip{ClipID: "clip-1", Position: 40}.Apply(p)
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	if changed {
		t.Error("moving onto the current position should report no change")
	}
}

func TestMoveClip_SameTrack(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "video0", "clip-2", "media-b", 50, 0, 29)

	changed, err := edit.MoveClip{ClipID: "clip-2", Position: 200}.Apply(p)
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	if !changed {
		t.Error("expected a change")
	}

	if pos := p.Track("video0").Clip("clip-2").Position; pos != 200 {
		t.Errorf("clip-2 at %d, want 200", pos)
	}

	assertNoOverlaps(t, p)
}

func TestMoveClip_CrossTrack(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)

	changed, err := edit.MoveClip{ClipID: "clip-1", TrackID: "video1", Position: 25}.Apply(p)
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	if !changed {
		t.Error("expected a change")
	}

	if p.Track("video0").Clip("clip-1") != nil {
		t.Error("clip still on the source track")
	}

	moved := p.Track("video1").Clip("clip-1")
	if moved == nil || moved.Position != 25 {
		t.Fatalf("clip missing or misplaced on target track: %+v", moved)
	}
}

func TestMoveClip_CrossTrackOverlapLeavesSourceIntact(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "video1", "clip-2", "media-b", 20, 0, 29)

	before := snapshot(t, p)

	_, err := edit.MoveClip{ClipID: "clip-1", TrackID: "video1", Position: 30}.Apply(p)
	wantCode(t, err, edit.CodeOverlap)

	if string(before) != string(snapshot(t, p)) {
		t.Error("model changed on failed cross-track move")
	}
}

func TestMoveClip_GroupedMovesWholeGroup(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "audio0", "clip-2", "media-a", 0, 0, 49)

	if err := p.AssignGroup("g1", []string{"clip-1", "clip-2"}); err != nil {
		t.Fatalf("assign group: %v", err)
	}

	changed, err := edit.MoveClip{ClipID: "clip-1", Position: 100}.Apply(p)
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	if !changed {
		t.Error("expected a change")
	}

	if pos := p.Track("audio0").Clip("clip-2").Position; pos != 100 {
		t.Errorf("group companion at %d, want 100", pos)
	}
}

func TestMoveClip_GroupedMemberBlockedAbortsWholeMove(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "audio0", "clip-2", "media-a", 0, 0, 49)
	place(t, p, "audio0", "clip-3", "media-b", 120, 0, 29)

	if err := p.AssignGroup("g1", []string{"clip-1", "clip-2"}); err != nil {
		t.Fatalf("assign group: %v", err)
	}

	before := snapshot(t, p)

	_, err := edit.MoveClip{ClipID: "clip-1", Position: 100}.Apply(p)
	wantCode(t, err, edit.CodeOverlap)

	if string(before) != string(snapshot(t, p)) {
		t.Error("partial group move leaked into the model")
	}
}

func TestMoveClip_GroupedCrossTrackIsRejected(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "audio0", "clip-2", "media-a", 0, 0, 49)

	if err := p.AssignGroup("g1", []string{"clip-1", "clip-2"}); err != nil {
		t.Fatalf("assign group: %v", err)
	}

	_, err := edit.MoveClip{ClipID: "clip-1", TrackID: "video1", Position: 0}.Apply(p)
	wantCode(t, err, edit.CodeInvalidInput)
}

func TestRemoveClip_WithCloseGapShiftsLaterClips(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "video0", "clip-2", "media-b", 50, 0, 29)

	err := edit.RemoveClip{ClipID: "clip-1", CloseGap: true}.Apply(p)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if pos := p.Track("video0").Clip("clip-2").Position; pos != 0 {
		t.Errorf("clip-2 at %d after close-gap removal, want 0", pos)
	}
}

func TestRemoveClip_WithoutCloseGapLeavesHole(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "video0", "clip-2", "media-b", 50, 0, 29)

	err := edit.RemoveClip{ClipID: "clip-1", CloseGap: false}.Apply(p)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if pos := p.Track("video0").Clip("clip-2").Position; pos != 50 {
		t.Errorf("clip-2 moved to %d, want 50", pos)
	}
}

func TestRemoveClip_DropsReferencingTransitions(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "video0", "clip-2", "media-b", 50, 0, 29)

	seq, _ := p.ActiveSequence()
	seq.Transitions = []*timeline.Transition{
		{ID: "tn-1", Service: "mix", FromClipID: "clip-1", ToClipID: "clip-2", In: 45, Out: 54},
	}

	err := edit.RemoveClip{ClipID: "clip-1"}.Apply(p)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if len(seq.Transitions) != 0 {
		t.Errorf("transition referencing the removed clip survived: %d left", len(seq.Transitions))
	}
}

func TestRippleDelete_ShiftsGroupCompanionsOnOtherTracks(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "video0", "clip-2", "media-b", 50, 0, 29)
	place(t, p, "audio0", "clip-3", "media-a", 50, 0, 29)

	if err := p.AssignGroup("g1", []string{"clip-2", "clip-3"}); err != nil {
		t.Fatalf("assign group: %v", err)
	}

	err := edit.RippleDelete{ClipID: "clip-1"}.Apply(p)
	if err != nil {
		t.Fatalf("ripple delete: %v", err)
	}

	if pos := p.Track("video0").Clip("clip-2").Position; pos != 0 {
		t.Errorf("clip-2 at %d, want 0", pos)
	}

	if pos := p.Track("audio0").Clip("clip-3").Position; pos != 0 {
		t.Errorf("grouped companion clip-3 at %d, want 0", pos)
	}

	assertNoOverlaps(t, p)
}

func TestRippleDelete_BlockedCompanionAbortsEverything(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 50, 0, 49)
	place(t, p, "video0", "clip-2", "media-b", 100, 0, 29)
	place(t, p, "audio0", "clip-3", "media-a", 100, 0, 29)
	place(t, p, "audio0", "clip-4", "media-b", 40, 0, 29)

	if err := p.AssignGroup("g1", []string{"clip-2", "clip-3"}); err != nil {
		t.Fatalf("assign group: %v", err)
	}

	before := snapshot(t, p)

	// Shifting clip-3 left by 50 would land it on clip-4.
	err := edit.RippleDelete{ClipID: "clip-1"}.Apply(p)
	wantCode(t, err, edit.CodeOverlap)

	if string(before) != string(snapshot(t, p)) {
		t.Error("failed ripple delete mutated the model")
	}
}
