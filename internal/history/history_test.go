package history_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/avharness/cutline/internal/history"
)

func openStore(t *testing.T, projectPath string) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), projectPath)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestOpen_CreatesDirectoryNextToProject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := openStore(t, filepath.Join(dir, "movie.json"))

	if got, want := store.Dir(), filepath.Join(dir, ".cutline"); got != want {
		t.Errorf("dir = %s, want %s", got, want)
	}
}

func TestOpenIn_HonorsDirectoryOverride(t *testing.T) {
	t.Parallel()

	projectDir := t.TempDir()
	override := filepath.Join(t.TempDir(), "snapshots-elsewhere")

	store, err := history.OpenIn(context.Background(), filepath.Join(projectDir, "movie.json"), override)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	if store.Dir() != override {
		t.Errorf("dir = %s, want %s", store.Dir(), override)
	}

	if _, statErr := os.Stat(filepath.Join(projectDir, ".cutline")); !os.IsNotExist(statErr) {
		t.Error("default directory was created despite the override")
	}
}

func TestOpen_SecondWriterIsLocked(t *testing.T) {
	t.Parallel()

	projectPath := filepath.Join(t.TempDir(), "movie.json")
	openStore(t, projectPath)

	_, err := history.Open(context.Background(), projectPath)
	if !errors.Is(err, history.ErrLocked) {
		t.Fatalf("second open: got %v, want ErrLocked", err)
	}
}

func TestStore_AppendAndPop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "movie.json"))

	first, err := store.Append(ctx, history.StackUndo, "first", []byte(`{"n":1}`))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	second, err := store.Append(ctx, history.StackUndo, "second", []byte(`{"n":2}`))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if second.Seq <= first.Seq {
		t.Errorf("seq not monotonic: %d then %d", first.Seq, second.Seq)
	}

	rec, err := store.Pop(ctx, history.StackUndo)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}

	if rec.Description != "second" || string(rec.Data) != `{"n":2}` {
		t.Errorf("popped %q with %q, want the newest record", rec.Description, rec.Data)
	}

	rec, err = store.Pop(ctx, history.StackUndo)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}

	if rec.Description != "first" {
		t.Errorf("popped %q, want %q", rec.Description, "first")
	}

	_, err = store.Pop(ctx, history.StackUndo)
	if !errors.Is(err, history.ErrEmpty) {
		t.Fatalf("pop on empty stack: got %v, want ErrEmpty", err)
	}
}

func TestStore_StacksAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "movie.json"))

	if _, err := store.Append(ctx, history.StackUndo, "undo rec", []byte("{}")); err != nil {
		t.Fatalf("append: %v", err)
	}

	_, err := store.Latest(ctx, history.StackRedo)
	if !errors.Is(err, history.ErrEmpty) {
		t.Fatalf("latest redo: got %v, want ErrEmpty", err)
	}
}

func TestStore_ListNewestFirstWithoutData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "movie.json"))

	if _, err := store.Append(ctx, history.StackUndo, "edit", []byte("{}")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := store.Append(ctx, history.StackCheckpoint, "milestone", []byte("{}")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := store.Append(ctx, history.StackRedo, "redo rec", []byte("{}")); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("list returned %d records, want undo and checkpoint only", len(records))
	}

	if records[0].Description != "milestone" || records[1].Description != "edit" {
		t.Errorf("order: %q then %q, want newest first", records[0].Description, records[1].Description)
	}

	for _, rec := range records {
		if rec.Data != nil {
			t.Errorf("record %q carries snapshot data", rec.Description)
		}
	}
}

func TestStore_ClearRedo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "movie.json"))

	if _, err := store.Append(ctx, history.StackRedo, "branch", []byte("{}")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := store.Append(ctx, history.StackUndo, "kept", []byte("{}")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := store.ClearRedo(ctx); err != nil {
		t.Fatalf("clear redo: %v", err)
	}

	if _, err := store.Latest(ctx, history.StackRedo); !errors.Is(err, history.ErrEmpty) {
		t.Fatalf("redo after clear: got %v, want ErrEmpty", err)
	}

	if _, err := store.Latest(ctx, history.StackUndo); err != nil {
		t.Fatalf("undo survived clear: %v", err)
	}
}

func TestStore_PruneKeepsNewest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "movie.json"))

	for i := 0; i < 5; i++ {
		desc := fmt.Sprintf("edit %d", i)

		if _, err := store.Append(ctx, history.StackUndo, desc, []byte("{}")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	removed, err := store.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}

	if removed != 3 {
		t.Errorf("pruned %d records, want 3", removed)
	}

	records, err := store.List(ctx, history.StackUndo)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(records) != 2 || records[0].Description != "edit 4" || records[1].Description != "edit 3" {
		t.Errorf("kept records: %+v", records)
	}
}

func TestStore_ReopenSeesPersistedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	projectPath := filepath.Join(t.TempDir(), "movie.json")

	store, err := history.Open(ctx, projectPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err = store.Append(ctx, history.StackUndo, "survives restart", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err = store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openStore(t, projectPath)

	rec, err := reopened.Latest(ctx, history.StackUndo)
	if err != nil {
		t.Fatalf("latest after reopen: %v", err)
	}

	if rec.Description != "survives restart" || string(rec.Data) != `{"v":1}` {
		t.Errorf("record after reopen: %+v", rec)
	}
}
