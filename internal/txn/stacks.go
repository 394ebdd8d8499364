package txn

import (
	"context"
	"errors"

	"github.com/avharness/cutline/internal/history"
)

// record is one stack element: a serialized pre-image plus its label.
type record struct {
	desc string
	data []byte
}

// stacks abstracts where the undo/redo stacks live. The in-memory form
// serves library embedding; the store-backed form persists every push and
// pop so history spans process restarts.
type stacks interface {
	pushUndo(ctx context.Context, desc string, data []byte) error
	popUndo(ctx context.Context) (record, bool, error)
	pushRedo(ctx context.Context, desc string, data []byte) error
	popRedo(ctx context.Context) (record, bool, error)
	clearRedo(ctx context.Context) error
	checkpoint(ctx context.Context, desc string, data []byte) error
}

type memStacks struct {
	undo []record
	redo []record
	// checkpoints are kept for symmetry; without a store they are only
	// observable through tests.
	checkpoints []record
}

func (s *memStacks) pushUndo(_ context.Context, desc string, data []byte) error {
	s.undo = append(s.undo, record{desc: desc, data: data})
	return nil
}

func (s *memStacks) popUndo(_ context.Context) (record, bool, error) {
	if len(s.undo) == 0 {
		return record{}, false, nil
	}

	rec := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	return rec, true, nil
}

func (s *memStacks) pushRedo(_ context.Context, desc string, data []byte) error {
	s.redo = append(s.redo, record{desc: desc, data: data})
	return nil
}

func (s *memStacks) popRedo(_ context.Context) (record, bool, error) {
	if len(s.redo) == 0 {
		return record{}, false, nil
	}

	rec := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]

	return rec, true, nil
}

func (s *memStacks) clearRedo(_ context.Context) error {
	s.redo = nil
	return nil
}

func (s *memStacks) checkpoint(_ context.Context, desc string, data []byte) error {
	s.checkpoints = append(s.checkpoints, record{desc: desc, data: data})
	return nil
}

type storeStacks struct {
	store *history.Store
}

func (s *storeStacks) pushUndo(ctx context.Context, desc string, data []byte) error {
	_, err := s.store.Append(ctx, history.StackUndo, desc, data)
	return err
}

func (s *storeStacks) popUndo(ctx context.Context) (record, bool, error) {
	rec, err := s.store.Pop(ctx, history.StackUndo)

	switch {
	case errors.Is(err, history.ErrEmpty):
		return record{}, false, nil
	case err != nil:
		return record{}, false, err
	}

	return record{desc: rec.Description, data: rec.Data}, true, nil
}

func (s *storeStacks) pushRedo(ctx context.Context, desc string, data []byte) error {
	_, err := s.store.Append(ctx, history.StackRedo, desc, data)
	return err
}

func (s *storeStacks) popRedo(ctx context.Context) (record, bool, error) {
	rec, err := s.store.Pop(ctx, history.StackRedo)

	switch {
	case errors.Is(err, history.ErrEmpty):
		return record{}, false, nil
	case err != nil:
		return record{}, false, err
	}

	return record{desc: rec.Description, data: rec.Data}, true, nil
}

func (s *storeStacks) clearRedo(ctx context.Context) error {
	return s.store.ClearRedo(ctx)
}

func (s *storeStacks) checkpoint(ctx context.Context, desc string, data []byte) error {
	_, err := s.store.Append(ctx, history.StackCheckpoint, desc, data)
	return err
}
