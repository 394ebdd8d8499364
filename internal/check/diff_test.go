package check_test

import (
	"testing"

	"github.com/avharness/cutline/internal/check"
	"github.com/avharness/cutline/internal/edit"
)

func TestDiff_IdenticalModelsAreEmpty(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	placeClip(t, p, "video0", "clip-1", 0, 0, 49)

	report := check.Diff(p, p.Clone())
	if !report.Empty() {
		t.Fatalf("expected an empty report, got %+v", report)
	}
}

func TestDiff_ReportsAddedAndRemovedClips(t *testing.T) {
	t.Parallel()

	from := newProject(t)
	placeClip(t, from, "video0", "clip-old", 0, 0, 49)

	to := from.Clone()

	if _, err := to.Track("video0").Remove("clip-old"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	placeClip(t, to, "video0", "clip-new", 100, 0, 29)

	report := check.Diff(from, to)

	if len(report.Added) != 1 || report.Added[0].ID != "clip-new" {
		t.Errorf("added: %+v", report.Added)
	}

	if len(report.Removed) != 1 || report.Removed[0].ID != "clip-old" {
		t.Errorf("removed: %+v", report.Removed)
	}
}

func TestDiff_MovedClipReportsPositionDelta(t *testing.T) {
	t.Parallel()

	from := newProject(t)
	placeClip(t, from, "video0", "clip-1", 0, 0, 49)

	to := from.Clone()

	if _, err := (edit.MoveClip{ClipID: "clip-1", Position: 80}).Apply(to); err != nil {
		t.Fatalf("move: %v", err)
	}

	report := check.Diff(from, to)

	if len(report.Modified) != 1 {
		t.Fatalf("modified: %+v", report.Modified)
	}

	fields := report.Modified[0].Fields
	if len(fields) != 1 || fields[0].Field != "position" || fields[0].Old != "0" || fields[0].New != "80" {
		t.Errorf("field deltas: %+v", fields)
	}
}

func TestDiff_TrimmedClipReportsSourceWindow(t *testing.T) {
	t.Parallel()

	from := newProject(t)
	placeClip(t, from, "video0", "clip-1", 0, 0, 49)

	to := from.Clone()

	in := int64(10)
	if _, err := (edit.TrimClip{ClipID: "clip-1", InPoint: &in}).Apply(to); err != nil {
		t.Fatalf("trim: %v", err)
	}

	report := check.Diff(from, to)

	if len(report.Modified) != 1 {
		t.Fatalf("modified: %+v", report.Modified)
	}

	changed := map[string]bool{}
	for _, f := range report.Modified[0].Fields {
		changed[f.Field] = true
	}

	if !changed["in_point"] || !changed["position"] {
		t.Errorf("expected in_point and position deltas, got %+v", report.Modified[0].Fields)
	}
}

func TestDiff_MoveAndMoveBackIsEmpty(t *testing.T) {
	t.Parallel()

	from := newProject(t)
	placeClip(t, from, "video0", "clip-1", 0, 0, 49)

	to := from.Clone()

	if _, err := (edit.MoveClip{ClipID: "clip-1", Position: 200}).Apply(to); err != nil {
		t.Fatalf("move: %v", err)
	}

	if _, err := (edit.MoveClip{ClipID: "clip-1", Position: 0}).Apply(to); err != nil {
		t.Fatalf("move back: %v", err)
	}

	if report := check.Diff(from, to); !report.Empty() {
		t.Fatalf("expected an empty report after move and move back, got %+v", report)
	}
}

func TestDiff_ProjectPropertiesAndProducers(t *testing.T) {
	t.Parallel()

	from := newProject(t)

	to := from.Clone()
	to.FPS = 25
	to.Producers["media-a"].Name = "Renamed"

	report := check.Diff(from, to)

	if len(report.Modified) != 2 {
		t.Fatalf("modified: %+v", report.Modified)
	}

	kinds := map[string]bool{}
	for _, entry := range report.Modified {
		kinds[entry.Kind] = true
	}

	if !kinds["project"] || !kinds["producer"] {
		t.Errorf("expected project and producer entries, got %+v", report.Modified)
	}
}
