// Package docio is the persistence collaborator: loading, serializing, and
// atomically writing project documents. Load/save happen at transaction
// boundaries only; no operation touches disk mid-transaction.
package docio

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/timeline"
)

// Load reads and parses a project document.
func Load(path string) (*timeline.Project, *edit.Error) {
	data, err := os.ReadFile(path)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, edit.Wrap(edit.CodeNotFound, err, "project file %s not found", path)
	case err != nil:
		return nil, edit.Wrap(edit.CodeIO, err, "read project file %s", path)
	}

	p, parseErr := timeline.Decode(data)
	if parseErr != nil {
		return nil, edit.Wrap(edit.CodeInvalidInput, parseErr, "parse project file %s", path)
	}

	return p, nil
}

// Serialize renders the deterministic byte form of a model.
func Serialize(p *timeline.Project) ([]byte, *edit.Error) {
	data, err := p.Canonical()
	if err != nil {
		return nil, edit.Wrap(edit.CodeInvalidInput, err, "serialize project")
	}

	return data, nil
}

// Write lands bytes at path with atomic-rename semantics: a reader never
// observes a half-written document. IO failures are retryable.
func Write(path string, data []byte) *edit.Error {
	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return edit.Wrap(edit.CodeIO, err, "create directory for %s", path)
	}

	err = atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return edit.Wrap(edit.CodeIO, err, "write project file %s", path)
	}

	return nil
}

// Save serializes and writes a model in one step.
func Save(p *timeline.Project, path string) *edit.Error {
	data, err := Serialize(p)
	if err != nil {
		return err
	}

	return Write(path, data)
}

// Clone copies a document byte-for-byte to target. Unless overwrite is set,
// an existing target fails INVALID_INPUT.
func Clone(source, target string, overwrite bool) *edit.Error {
	data, err := os.ReadFile(source)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return edit.Wrap(edit.CodeNotFound, err, "project file %s not found", source)
	case err != nil:
		return edit.Wrap(edit.CodeIO, err, "read project file %s", source)
	}

	if !overwrite {
		_, statErr := os.Stat(target)
		if statErr == nil {
			return edit.Errorf(edit.CodeInvalidInput, "target %s already exists", target)
		}

		if !errors.Is(statErr, fs.ErrNotExist) {
			return edit.Wrap(edit.CodeIO, statErr, "stat %s", target)
		}
	}

	return Write(target, data)
}
