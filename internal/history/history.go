// Package history persists the out-of-band snapshot record store for a
// project document. Records live next to the document in a .cutline
// directory: a SQLite index plus one serialized snapshot file per record,
// keyed by the project path so several documents can share the directory.
//
// The store backs linear undo/redo across process invocations: committed
// pre-images land on the undo stack, undone states on the redo stack, and
// label-only checkpoints alongside them. A flock on the directory keeps the
// store single-writer; the document itself is never locked.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/natefinch/atomic"
)

// Stack names a record's role in the history.
type Stack string

// Stacks.
const (
	StackUndo       Stack = "undo"
	StackRedo       Stack = "redo"
	StackCheckpoint Stack = "checkpoint"
)

// Sentinel errors.
var (
	// ErrLocked reports that another process holds the history directory.
	ErrLocked = errors.New("history directory is locked")
	// ErrEmpty reports a pop from an empty stack.
	ErrEmpty = errors.New("history stack is empty")
)

// Record is one immutable serialized project snapshot with its label.
// Seq is the store-assigned monotonic id; ID is the opaque record id.
type Record struct {
	Seq         int64
	ID          string
	Stack       Stack
	Description string
	CreatedAt   time.Time
	Data        []byte
}

// Store is the snapshot store for one project path.
type Store struct {
	dir         string
	projectPath string
	db          *sql.DB
	lock        *flock.Flock
}

const dirName = ".cutline"

// Open initializes (or reuses) the history directory next to the project
// document and takes the writer lock. It fails with [ErrLocked] when another
// process holds the directory.
func Open(ctx context.Context, projectPath string) (*Store, error) {
	return OpenIn(ctx, projectPath, "")
}

// OpenIn is [Open] with an explicit history directory. An empty dir means
// the default location next to the project document. Records stay keyed by
// project path, so several documents can share one directory.
func OpenIn(ctx context.Context, projectPath, dir string) (*Store, error) {
	if projectPath == "" {
		return nil, errors.New("open history: project path is empty")
	}

	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	if dir == "" {
		dir = filepath.Join(filepath.Dir(abs), dirName)
	}

	err = os.MkdirAll(filepath.Join(dir, "snapshots"), 0o750)
	if err != nil {
		return nil, fmt.Errorf("open history: create directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "lock"))

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("open history: lock: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("open history %s: %w", dir, ErrLocked)
	}

	db, err := openIndex(ctx, filepath.Join(dir, "history.sqlite"))
	if err != nil {
		_ = lock.Unlock()

		return nil, err
	}

	return &Store{dir: dir, projectPath: abs, db: db, lock: lock}, nil
}

// Close releases the index handle and the directory lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	var firstErr error

	if s.db != nil {
		firstErr = s.db.Close()
		s.db = nil
	}

	if s.lock != nil {
		err := s.lock.Unlock()
		if firstErr == nil {
			firstErr = err
		}

		s.lock = nil
	}

	if firstErr != nil {
		return fmt.Errorf("close history: %w", firstErr)
	}

	return nil
}

// Dir returns the history directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Append stores a new record on the given stack and returns it.
func (s *Store) Append(ctx context.Context, stack Stack, description string, data []byte) (Record, error) {
	id, err := newRecordID()
	if err != nil {
		return Record{}, fmt.Errorf("append history: %w", err)
	}

	file := filepath.Join(s.dir, "snapshots", id+".json")

	err = atomic.WriteFile(file, bytesReader(data))
	if err != nil {
		return Record{}, fmt.Errorf("append history: write snapshot: %w", err)
	}

	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, project_path, stack, description, created_at, file)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, s.projectPath, string(stack), description, now.UnixNano(), file)
	if err != nil {
		_ = os.Remove(file)

		return Record{}, fmt.Errorf("append history: index insert: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("append history: %w", err)
	}

	return Record{Seq: seq, ID: id, Stack: stack, Description: description, CreatedAt: now, Data: data}, nil
}

// Latest returns the newest record on a stack without removing it.
func (s *Store) Latest(ctx context.Context, stack Stack) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT seq, id, stack, description, created_at, file FROM snapshots
		 WHERE project_path = ? AND stack = ? ORDER BY seq DESC LIMIT 1`,
		s.projectPath, string(stack))

	return s.scanRecord(row)
}

// Pop removes and returns the newest record on a stack.
func (s *Store) Pop(ctx context.Context, stack Stack) (Record, error) {
	rec, err := s.Latest(ctx, stack)
	if err != nil {
		return Record{}, err
	}

	err = s.delete(ctx, rec)
	if err != nil {
		return Record{}, err
	}

	return rec, nil
}

// ClearRedo drops the whole redo stack. A new commit discards any redo
// branch.
func (s *Store) ClearRedo(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file FROM snapshots WHERE project_path = ? AND stack = ?`,
		s.projectPath, string(StackRedo))
	if err != nil {
		return fmt.Errorf("clear redo: %w", err)
	}

	var files []string

	for rows.Next() {
		var file string

		if scanErr := rows.Scan(&file); scanErr != nil {
			_ = rows.Close()

			return fmt.Errorf("clear redo: %w", scanErr)
		}

		files = append(files, file)
	}

	if err = rows.Err(); err != nil {
		_ = rows.Close()

		return fmt.Errorf("clear redo: %w", err)
	}

	_ = rows.Close()

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE project_path = ? AND stack = ?`,
		s.projectPath, string(StackRedo))
	if err != nil {
		return fmt.Errorf("clear redo: %w", err)
	}

	for _, file := range files {
		_ = os.Remove(file)
	}

	return nil
}

// List returns records on the given stacks, newest first, without snapshot
// data loaded.
func (s *Store) List(ctx context.Context, stacks ...Stack) ([]Record, error) {
	if len(stacks) == 0 {
		stacks = []Stack{StackUndo, StackCheckpoint}
	}

	query := `SELECT seq, id, stack, description, created_at, file FROM snapshots
	 WHERE project_path = ? AND stack IN (?` + repeat(",?", len(stacks)-1) + `)
	 ORDER BY seq DESC`

	args := []any{s.projectPath}
	for _, st := range stacks {
		args = append(args, string(st))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var out []Record

	for rows.Next() {
		var (
			rec       Record
			stackName string
			createdNS int64
			file      string
		)

		err = rows.Scan(&rec.Seq, &rec.ID, &stackName, &rec.Description, &createdNS, &file)
		if err != nil {
			return nil, fmt.Errorf("list history: %w", err)
		}

		rec.Stack = Stack(stackName)
		rec.CreatedAt = time.Unix(0, createdNS).UTC()

		out = append(out, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	return out, nil
}

// Prune keeps the newest limit undo/checkpoint records and deletes the rest.
// Records are pruned only on explicit limits, never implicitly.
func (s *Store) Prune(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, errors.New("prune history: limit must be > 0")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, stack, description, created_at, file FROM snapshots
		 WHERE project_path = ? AND stack IN (?, ?)
		 ORDER BY seq DESC LIMIT -1 OFFSET ?`,
		s.projectPath, string(StackUndo), string(StackCheckpoint), limit)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}

	var victims []Record

	for rows.Next() {
		var (
			rec       Record
			stackName string
			createdNS int64
			file      string
		)

		if scanErr := rows.Scan(&rec.Seq, &rec.ID, &stackName, &rec.Description, &createdNS, &file); scanErr != nil {
			_ = rows.Close()

			return 0, fmt.Errorf("prune history: %w", scanErr)
		}

		rec.Stack = Stack(stackName)

		victims = append(victims, rec)
	}

	if err = rows.Err(); err != nil {
		_ = rows.Close()

		return 0, fmt.Errorf("prune history: %w", err)
	}

	_ = rows.Close()

	for _, rec := range victims {
		if delErr := s.delete(ctx, rec); delErr != nil {
			return 0, delErr
		}
	}

	return len(victims), nil
}

func (s *Store) delete(ctx context.Context, rec Record) error {
	var file string

	row := s.db.QueryRowContext(ctx, `SELECT file FROM snapshots WHERE seq = ?`, rec.Seq)

	err := row.Scan(&file)
	if err != nil {
		return fmt.Errorf("delete history record %d: %w", rec.Seq, err)
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE seq = ?`, rec.Seq)
	if err != nil {
		return fmt.Errorf("delete history record %d: %w", rec.Seq, err)
	}

	_ = os.Remove(file)

	return nil
}

func (s *Store) scanRecord(row *sql.Row) (Record, error) {
	var (
		rec       Record
		stackName string
		createdNS int64
		file      string
	)

	err := row.Scan(&rec.Seq, &rec.ID, &stackName, &rec.Description, &createdNS, &file)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Record{}, ErrEmpty
	case err != nil:
		return Record{}, fmt.Errorf("read history record: %w", err)
	}

	rec.Stack = Stack(stackName)
	rec.CreatedAt = time.Unix(0, createdNS).UTC()

	rec.Data, err = os.ReadFile(file)
	if err != nil {
		return Record{}, fmt.Errorf("read snapshot %s: %w", file, err)
	}

	return rec, nil
}

func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate record id: %w", err)
	}

	return id.String(), nil
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}

	return out
}
