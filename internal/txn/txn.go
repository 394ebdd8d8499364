// Package txn is the sole mutation gate for a project document. A Manager
// owns the authoritative model; edits run against a working copy inside a
// transaction and are published wholesale on commit, after a full validation
// pass. Undo/redo is linear: two stacks of immutable snapshots, with the
// redo branch discarded on every new commit.
package txn

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/avharness/cutline/internal/check"
	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/history"
	"github.com/avharness/cutline/internal/timeline"
)

// State tags a transaction's lifecycle.
type State string

// Transaction states.
const (
	StateOpen       State = "OPEN"
	StateCommitted  State = "COMMITTED"
	StateRolledBack State = "ROLLED_BACK"
)

// Transaction is one atomic multi-operation unit. The working copy is only
// reachable while the transaction is OPEN.
type Transaction struct {
	state    State
	desc     string
	preImage []byte
	working  *timeline.Project
}

// State returns the transaction's lifecycle state.
func (t *Transaction) State() State {
	return t.state
}

// Working exposes the working copy for edit operations. Nil once the
// transaction has left OPEN.
func (t *Transaction) Working() *timeline.Project {
	if t.state != StateOpen {
		return nil
	}

	return t.working
}

// Manager serializes all mutation of one document. It is single-threaded by
// contract: no method may be re-entered while a transaction is open, and
// independent documents get independent managers.
type Manager struct {
	current *timeline.Project
	tx      *Transaction
	stacks  stacks
	checks  check.Options
	log     *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithHistory persists the undo/redo stacks and checkpoints through the
// given store, so history survives process restarts.
func WithHistory(store *history.Store) Option {
	return func(m *Manager) {
		m.stacks = &storeStacks{store: store}
	}
}

// WithValidation sets the options for the commit-time validation pass.
func WithValidation(opts check.Options) Option {
	return func(m *Manager) {
		m.checks = opts
	}
}

// WithLogger attaches a logger for transaction-boundary events.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// New creates a manager owning the given model.
func New(current *timeline.Project, opts ...Option) *Manager {
	m := &Manager{
		current: current,
		stacks:  &memStacks{},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Current returns the authoritative model. Callers must treat it as
// read-only; all mutation goes through a transaction.
func (m *Manager) Current() *timeline.Project {
	return m.current
}

// Begin snapshots the pre-image and opens a working copy. A nested begin
// fails TRANSACTION_IN_PROGRESS.
func (m *Manager) Begin(description string) (*Transaction, *edit.Error) {
	if m.tx != nil && m.tx.state == StateOpen {
		return nil, edit.Errorf(edit.CodeTxnInProgress, "transaction %q is already open", m.tx.desc)
	}

	preImage, err := m.current.Canonical()
	if err != nil {
		return nil, edit.Wrap(edit.CodeInvalidInput, err, "snapshot pre-image")
	}

	m.tx = &Transaction{
		state:    StateOpen,
		desc:     description,
		preImage: preImage,
		working:  m.current.Clone(),
	}

	m.log.Debug("transaction open", "description", description)

	return m.tx, nil
}

// Commit validates the working copy, publishes it as the authoritative
// model, and appends the pre-image to the undo stack. Any validation error
// aborts the commit as VALIDATION_FAILED and rolls the transaction back,
// leaving the model unchanged. A successful commit discards the redo stack.
func (m *Manager) Commit(ctx context.Context) *edit.Error {
	if m.tx == nil || m.tx.state != StateOpen {
		return edit.Errorf(edit.CodeInvalidInput, "no open transaction to commit")
	}

	violations := check.Errors(check.Validate(m.tx.working, m.checks))
	if len(violations) > 0 {
		m.tx.state = StateRolledBack
		m.tx.working = nil

		m.log.Warn("commit aborted by validation",
			"description", m.tx.desc, "violations", len(violations))

		return edit.Errorf(edit.CodeValidationFailed,
			"commit %q aborted: %s (%d violations)", m.tx.desc, summarize(violations), len(violations))
	}

	err := m.stacks.pushUndo(ctx, m.tx.desc, m.tx.preImage)
	if err != nil {
		m.tx.state = StateRolledBack
		m.tx.working = nil

		return edit.Wrap(edit.CodeIO, err, "record commit snapshot")
	}

	if err = m.stacks.clearRedo(ctx); err != nil {
		// The pre-image already pushed above is byte-identical to the still
		// current model, so Undo will skip it; leaving the transaction open
		// would let a retried Commit push it twice.
		m.tx.state = StateRolledBack
		m.tx.working = nil

		return edit.Wrap(edit.CodeIO, err, "discard redo branch")
	}

	m.current = m.tx.working
	m.tx.state = StateCommitted
	m.tx.working = nil

	m.log.Info("transaction committed", "description", m.tx.desc)

	return nil
}

// Rollback discards the working copy; the authoritative model is untouched.
func (m *Manager) Rollback() *edit.Error {
	if m.tx == nil || m.tx.state != StateOpen {
		return edit.Errorf(edit.CodeInvalidInput, "no open transaction to roll back")
	}

	m.tx.state = StateRolledBack
	m.tx.working = nil

	m.log.Debug("transaction rolled back", "description", m.tx.desc)

	return nil
}

// Undo restores the pre-image of the latest snapshot that differs from the
// current state and pushes the current state onto the redo stack.
func (m *Manager) Undo(ctx context.Context) *edit.Error {
	if m.tx != nil && m.tx.state == StateOpen {
		return edit.Errorf(edit.CodeTxnInProgress, "cannot undo while transaction %q is open", m.tx.desc)
	}

	current, err := m.current.Canonical()
	if err != nil {
		return edit.Wrap(edit.CodeInvalidInput, err, "snapshot current state")
	}

	for {
		rec, ok, popErr := m.stacks.popUndo(ctx)
		if popErr != nil {
			return edit.Wrap(edit.CodeIO, popErr, "pop undo stack")
		}

		if !ok {
			return edit.Errorf(edit.CodeInvalidInput, "nothing to undo")
		}

		// No-op commits snapshot a state identical to the present one;
		// skip them so undo always observably changes the model.
		if string(rec.data) == string(current) {
			continue
		}

		restored, decodeErr := timeline.Decode(rec.data)
		if decodeErr != nil {
			return edit.Wrap(edit.CodeInvalidInput, decodeErr, "restore snapshot")
		}

		if pushErr := m.stacks.pushRedo(ctx, rec.desc, current); pushErr != nil {
			return edit.Wrap(edit.CodeIO, pushErr, "push redo stack")
		}

		m.current = restored

		m.log.Info("undo", "description", rec.desc)

		return nil
	}
}

// Redo reapplies the latest state popped off by Undo. The redo stack only
// survives until the next commit.
func (m *Manager) Redo(ctx context.Context) *edit.Error {
	if m.tx != nil && m.tx.state == StateOpen {
		return edit.Errorf(edit.CodeTxnInProgress, "cannot redo while transaction %q is open", m.tx.desc)
	}

	rec, ok, err := m.stacks.popRedo(ctx)
	if err != nil {
		return edit.Wrap(edit.CodeIO, err, "pop redo stack")
	}

	if !ok {
		return edit.Errorf(edit.CodeInvalidInput, "nothing to redo")
	}

	current, canonErr := m.current.Canonical()
	if canonErr != nil {
		return edit.Wrap(edit.CodeInvalidInput, canonErr, "snapshot current state")
	}

	restored, decodeErr := timeline.Decode(rec.data)
	if decodeErr != nil {
		return edit.Wrap(edit.CodeInvalidInput, decodeErr, "restore snapshot")
	}

	if pushErr := m.stacks.pushUndo(ctx, rec.desc, current); pushErr != nil {
		return edit.Wrap(edit.CodeIO, pushErr, "push undo stack")
	}

	m.current = restored

	m.log.Info("redo", "description", rec.desc)

	return nil
}

// Checkpoint records a label-only snapshot of the current state without
// requiring an edit.
func (m *Manager) Checkpoint(ctx context.Context, description string) *edit.Error {
	if m.tx != nil && m.tx.state == StateOpen {
		return edit.Errorf(edit.CodeTxnInProgress, "cannot checkpoint while transaction %q is open", m.tx.desc)
	}

	data, err := m.current.Canonical()
	if err != nil {
		return edit.Wrap(edit.CodeInvalidInput, err, "snapshot current state")
	}

	if cpErr := m.stacks.checkpoint(ctx, description, data); cpErr != nil {
		return edit.Wrap(edit.CodeIO, cpErr, "record checkpoint")
	}

	m.log.Info("checkpoint", "description", description)

	return nil
}

func summarize(violations []check.Violation) string {
	msgs := make([]string, 0, min(len(violations), 3))

	for i, violation := range violations {
		if i == 3 {
			break
		}

		msgs = append(msgs, violation.Message)
	}

	return strings.Join(msgs, "; ")
}
