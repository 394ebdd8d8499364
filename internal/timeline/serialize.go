package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Canonical returns the deterministic serialized form of the project.
// Map keys are emitted sorted, sequences and tracks keep document order, and
// clips are kept sorted by position, so equal models always serialize to
// equal bytes. Snapshots, diffing, and equality all build on this.
func (p *Project) Canonical() ([]byte, error) {
	for _, seq := range p.Sequences {
		for _, tr := range seq.Tracks {
			tr.Resort()
		}
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize project: %w", err)
	}

	data = append(data, '\n')

	return data, nil
}

// Decode parses a canonical document back into a project.
func Decode(data []byte) (*Project, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p Project

	err := dec.Decode(&p)
	if err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}

	if p.Producers == nil {
		p.Producers = map[string]*Producer{}
	}

	if p.Bin == nil {
		p.Bin = &BinFolder{Name: "bin"}
	}

	return &p, nil
}

// Equal reports whether two projects serialize to identical bytes.
func Equal(a, b *Project) bool {
	if a == nil || b == nil {
		return a == b
	}

	da, err := a.Canonical()
	if err != nil {
		return false
	}

	db, err := b.Canonical()
	if err != nil {
		return false
	}

	return bytes.Equal(da, db)
}

// NewClipID returns a fresh clip instance id. UUIDv7 keeps ids sortable by
// creation time, which makes histories and diffs easier to read.
func NewClipID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 generation only fails if the entropy source does.
		return "clip-" + uuid.NewString()
	}

	return "clip-" + id.String()
}
