package edit_test

import (
	"testing"

	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/timeline"
)

func int64p(v int64) *int64 {
	return &v
}

func TestTrimClip_LeftEdgeAnchorsRightEdge(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 100, 10, 59)

	changed, err := edit.TrimClip{ClipID: "clip-1", InPoint: int64p(20)}.Apply(p)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}

	if !changed {
		t.Error("expected a change")
	}

	c := p.Track("video0").Clip("clip-1")

	if c.Position != 110 {
		t.Errorf("position %d, want 110 (right edge anchored)", c.Position)
	}

	if c.End() != 150 {
		t.Errorf("end %d, want 150 unchanged", c.End())
	}
}

func TestTrimClip_NoChangeIsIdempotent(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 10, 59)

	changed, err := edit.TrimClip{ClipID: "clip-1", InPoint: int64p(10), OutPoint: int64p(59)}.Apply(p)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}

	if changed {
		t.Error("identical trim should report no change")
	}
}

func TestTrimClip_RejectsCollapseAndBounds(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-b", 0, 10, 59)

	_, err := edit.TrimClip{ClipID: "clip-1", OutPoint: int64p(5)}.Apply(p)
	wantCode(t, err, edit.CodeOutOfRange)

	_, err = edit.TrimClip{ClipID: "clip-1", OutPoint: int64p(150)}.Apply(p)
	wantCode(t, err, edit.CodeOutOfRange)
}

func TestSplitClip_PartDurationsSumToOriginal(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	original := place(t, p, "video0", "clip-1", "media-a", 100, 10, 89)
	originalDur := original.Duration()

	second, err := edit.SplitClip{ClipID: "clip-1", Frame: 130}.Apply(p)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	first := p.Track("video0").Clip("clip-1")

	if first.Duration()+second.Duration() != originalDur {
		t.Errorf("durations %d+%d do not sum to %d", first.Duration(), second.Duration(), originalDur)
	}

	if first.End() != second.Position {
		t.Errorf("parts not contiguous: first ends %d, second starts %d", first.End(), second.Position)
	}

	if second.InPoint != 40 {
		t.Errorf("second in point %d, want 40 (source continuity)", second.InPoint)
	}

	assertNoOverlaps(t, p)
}

func TestSplitClip_RejectsBoundaryFrames(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 100, 0, 49)

	_, err := edit.SplitClip{ClipID: "clip-1", Frame: 100}.Apply(p)
	wantCode(t, err, edit.CodeOutOfRange)

	_, err = edit.SplitClip{ClipID: "clip-1", Frame: 150}.Apply(p)
	wantCode(t, err, edit.CodeOutOfRange)
}

func TestSplitClip_SecondPartInheritsEffects(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)

	_, err := edit.ApplyEffect{ClipID: "clip-1", Service: "brightness", Properties: map[string]string{"level": "0.5"}}.Apply(p)
	if err != nil {
		t.Fatalf("apply effect: %v", err)
	}

	second, err := edit.SplitClip{ClipID: "clip-1", Frame: 25}.Apply(p)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	if len(second.Effects) != 1 || second.Effects[0].Service != "brightness" {
		t.Fatalf("second part effects: %+v", second.Effects)
	}

	// Cloned, not shared.
	second.Effects[0].Properties["level"] = "0.9"

	if p.Track("video0").Clip("clip-1").Effects[0].Properties["level"] != "0.5" {
		t.Error("split parts share effect storage")
	}
}

func TestSlip_ClampsToProducerBounds(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	// media-b has 100 frames; window [20,69] can slip +30 or -20 at most.
	place(t, p, "video0", "clip-1", "media-b", 0, 20, 69)

	applied, err := edit.Slip{ClipID: "clip-1", Delta: 50}.Apply(p)
	if err != nil {
		t.Fatalf("slip: %v", err)
	}

	if applied != 30 {
		t.Errorf("applied %d, want clamp to 30", applied)
	}

	c := p.Track("video0").Clip("clip-1")
	if c.InPoint != 50 || c.OutPoint != 99 {
		t.Errorf("window [%d,%d], want [50,99]", c.InPoint, c.OutPoint)
	}

	if c.Position != 0 {
		t.Errorf("slip moved the clip to %d", c.Position)
	}

	applied, err = edit.Slip{ClipID: "clip-1", Delta: -200}.Apply(p)
	if err != nil {
		t.Fatalf("slip: %v", err)
	}

	if applied != -50 {
		t.Errorf("applied %d, want clamp to -50", applied)
	}
}

func TestSlide_TrimsNeighborsKeepingOwnDuration(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-prev", "media-a", 0, 0, 49)
	place(t, p, "video0", "clip-mid", "media-b", 50, 0, 29)
	place(t, p, "video0", "clip-next", "media-a", 80, 60, 119)

	changed, err := edit.Slide{ClipID: "clip-mid", Delta: 10}.Apply(p)
	if err != nil {
		t.Fatalf("slide: %v", err)
	}

	if !changed {
		t.Error("expected a change")
	}

	mid := p.Track("video0").Clip("clip-mid")
	if mid.Position != 60 || mid.Duration() != 30 {
		t.Errorf("mid at %d dur %d, want 60 dur 30", mid.Position, mid.Duration())
	}

	prev := p.Track("video0").Clip("clip-prev")
	if prev.End() != 60 {
		t.Errorf("prev tail extends to %d, want 60", prev.End())
	}

	next := p.Track("video0").Clip("clip-next")
	if next.Position != 90 || next.InPoint != 70 {
		t.Errorf("next at %d in %d, want 90/70 (head trimmed)", next.Position, next.InPoint)
	}

	assertNoOverlaps(t, p)
}

func TestSlide_NeighborWithoutRoomAbortsWholeSlide(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-mid", "media-b", 50, 0, 29)
	place(t, p, "video0", "clip-next", "media-a", 80, 0, 9)

	before := snapshot(t, p)

	// +15 overlaps clip-next by 15, which is more than its 10 frames.
	_, err := edit.Slide{ClipID: "clip-mid", Delta: 15}.Apply(p)
	wantCode(t, err, edit.CodeOutOfRange)

	if string(before) != string(snapshot(t, p)) {
		t.Error("failed slide mutated the model")
	}
}

func TestSlide_ZeroDeltaIsNoOp(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)

	changed, err := edit.Slide{ClipID: "clip-1", Delta: 0}.Apply(p)
	if err != nil {
		t.Fatalf("slide: %v", err)
	}

	if changed {
		t.Error("zero delta should report no change")
	}
}

func TestTimeRemap_HalfSpeedDoublesTimelineDuration(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)

	oldDur, newDur, changed, err := edit.TimeRemap{ClipID: "clip-1", Speed: 0.5}.Apply(p)
	if err != nil {
		t.Fatalf("remap: %v", err)
	}

	if oldDur != 50 || newDur != 100 {
		t.Errorf("durations %d -> %d, want 50 -> 100", oldDur, newDur)
	}

	if !changed {
		t.Error("expected a change")
	}

	c := p.Track("video0").Clip("clip-1")
	if c.Duration() != 100 {
		t.Errorf("clip duration %d, want 100", c.Duration())
	}

	var speed string
	for _, e := range c.Effects {
		if e.Service == "timeremap" {
			speed = e.Properties["speed"]
		}
	}

	if speed != "0.5" {
		t.Errorf("timeremap speed property %q, want 0.5", speed)
	}
}

func TestTimeRemap_RejectsNonPositiveSpeed(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)

	_, _, _, err := edit.TimeRemap{ClipID: "clip-1", Speed: 0}.Apply(p)
	wantCode(t, err, edit.CodeInvalidInput)

	_, _, _, err = edit.TimeRemap{ClipID: "clip-1", Speed: -1}.Apply(p)
	wantCode(t, err, edit.CodeInvalidInput)
}

func TestTimeRemap_ExpansionBlockedByNeighbor(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)
	place(t, p, "video0", "clip-2", "media-b", 60, 0, 29)

	before := snapshot(t, p)

	_, _, _, err := edit.TimeRemap{ClipID: "clip-1", Speed: 0.5}.Apply(p)
	wantCode(t, err, edit.CodeOverlap)

	if string(before) != string(snapshot(t, p)) {
		t.Error("failed remap mutated the model")
	}
}

func TestTimeRemap_ExistingEffectWithoutPropertiesGainsSpeed(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)

	// An effect attached with no property map must not break a later remap.
	_, err := edit.ApplyEffect{ClipID: "clip-1", Service: "timeremap"}.Apply(p)
	if err != nil {
		t.Fatalf("apply effect: %v", err)
	}

	_, newDur, changed, err := edit.TimeRemap{ClipID: "clip-1", Speed: 2}.Apply(p)
	if err != nil {
		t.Fatalf("remap: %v", err)
	}

	if newDur != 25 || !changed {
		t.Errorf("newDur %d changed %v, want 25 true", newDur, changed)
	}

	c := p.Track("video0").Clip("clip-1")

	if len(c.Effects) != 1 {
		t.Fatalf("effect count %d, want the existing attachment reused", len(c.Effects))
	}

	if got := c.Effects[0].Properties["speed"]; got != "2" {
		t.Errorf("speed property %q, want 2", got)
	}
}

func TestTimeRemap_DurationNeutralSpeedStillReportsChange(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 0, 0, 49)

	// round(50 / 0.999) == 50: the duration survives but the speed
	// annotation is new, so the edit must not be treated as a no-op.
	oldDur, newDur, changed, err := edit.TimeRemap{ClipID: "clip-1", Speed: 0.999}.Apply(p)
	if err != nil {
		t.Fatalf("remap: %v", err)
	}

	if oldDur != newDur {
		t.Fatalf("durations %d -> %d, want rounding-neutral", oldDur, newDur)
	}

	if !changed {
		t.Error("expected a change for the new speed annotation")
	}

	c := p.Track("video0").Clip("clip-1")
	if got := findSpeed(c); got != "0.999" {
		t.Errorf("speed property %q, want 0.999", got)
	}

	// Reapplying the identical speed writes nothing.
	_, _, changed, err = edit.TimeRemap{ClipID: "clip-1", Speed: 0.999}.Apply(p)
	if err != nil {
		t.Fatalf("remap: %v", err)
	}

	if changed {
		t.Error("identical remap should report no change")
	}
}

func findSpeed(c *timeline.Clip) string {
	for _, e := range c.Effects {
		if e.Service == "timeremap" {
			return e.Properties["speed"]
		}
	}

	return ""
}

func TestNudge_ShiftsByDeltaWithOverlapCheck(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	place(t, p, "video0", "clip-1", "media-a", 10, 0, 49)
	place(t, p, "video0", "clip-2", "media-b", 70, 0, 29)

	changed, err := edit.Nudge{ClipID: "clip-1", Delta: -10}.Apply(p)
	if err != nil {
		t.Fatalf("nudge: %v", err)
	}

	if !changed {
		t.Error("expected a change")
	}

	if pos := p.Track("video0").Clip("clip-1").Position; pos != 0 {
		t.Errorf("position %d, want 0", pos)
	}

	_, err = edit.Nudge{ClipID: "clip-1", Delta: 30}.Apply(p)
	wantCode(t, err, edit.CodeOverlap)

	_, err = edit.Nudge{ClipID: "clip-1", Delta: -5}.Apply(p)
	wantCode(t, err, edit.CodeOutOfRange)
}
