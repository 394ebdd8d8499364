package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/timeline"
)

type flakyStacks struct {
	memStacks

	failClearRedo bool
}

func (s *flakyStacks) clearRedo(ctx context.Context) error {
	if s.failClearRedo {
		return errors.New("disk full")
	}

	return s.memStacks.clearRedo(ctx)
}

func TestCommit_RedoDiscardFailureSettlesTransaction(t *testing.T) {
	t.Parallel()

	p := timeline.New(30, 1920, 1080)

	m := New(p)
	st := &flakyStacks{failClearRedo: true}
	m.stacks = st

	tx, beginErr := m.Begin("edit")
	if beginErr != nil {
		t.Fatalf("begin: %v", beginErr)
	}

	err := m.Commit(context.Background())
	if err == nil || err.Code != edit.CodeIO {
		t.Fatalf("expected IO_ERROR, got %v", err)
	}

	if tx.State() != StateRolledBack {
		t.Errorf("transaction state %s, want ROLLED_BACK", tx.State())
	}

	if m.Current() != p {
		t.Error("failed commit published the working copy")
	}

	// A retried commit must not push a second pre-image.
	retryErr := m.Commit(context.Background())
	if retryErr == nil || retryErr.Code != edit.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT for the settled transaction, got %v", retryErr)
	}

	if len(st.undo) != 1 {
		t.Errorf("undo stack holds %d records, want 1", len(st.undo))
	}

	st.failClearRedo = false

	if _, retryBegin := m.Begin("retry"); retryBegin != nil {
		t.Fatalf("begin after settled commit: %v", retryBegin)
	}
}
