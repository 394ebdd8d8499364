package history

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT    NOT NULL UNIQUE,
	project_path TEXT    NOT NULL,
	stack        TEXT    NOT NULL CHECK (stack IN ('undo', 'redo', 'checkpoint')),
	description  TEXT    NOT NULL,
	created_at   INTEGER NOT NULL,
	file         TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_path_stack
	ON snapshots (project_path, stack, seq);
`

// openIndex opens the SQLite index, applying pragmas and the schema.
func openIndex(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("open history index: path is empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history index: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping history index: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, stmt := range pragmas {
		_, err = db.ExecContext(ctx, stmt)
		if err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}

	_, err = db.ExecContext(ctx, schema)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create history schema: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("set history schema version: %w", err)
	}

	return db, nil
}

// bytesReader adapts a byte slice for the atomic write helper.
func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
