// Package probe defines the media metadata collaborator. The engine never
// probes media itself; an external prober supplies duration/resolution/fps
// which the model caches on the producer.
package probe

import (
	"errors"
	"fmt"
	"sort"

	"github.com/avharness/cutline/internal/timeline"
)

// ErrUnreadable reports media the prober could not inspect.
var ErrUnreadable = errors.New("media is unreadable")

// Prober resolves a media path to its metadata.
type Prober interface {
	Probe(path string) (timeline.Meta, error)
}

// Static is a fixed path-to-metadata table. It serves tests and synthetic
// setups where real probing is out of scope.
type Static map[string]timeline.Meta

// Probe implements [Prober].
func (s Static) Probe(path string) (timeline.Meta, error) {
	meta, ok := s[path]
	if !ok {
		return timeline.Meta{}, fmt.Errorf("probe %s: %w", path, ErrUnreadable)
	}

	return meta, nil
}

// Refresh re-probes every file-backed producer without cached metadata and
// fills its cache. Producers whose media is unreadable are reported by id;
// a partial refresh is not an error.
func Refresh(p *timeline.Project, prober Prober) (updated, unreadable []string) {
	ids := make([]string, 0, len(p.Producers))
	for id := range p.Producers {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		prod := p.Producers[id]

		if prod.Synthetic() || prod.Meta != nil {
			continue
		}

		meta, err := prober.Probe(prod.Resource)
		if err != nil {
			unreadable = append(unreadable, id)
			continue
		}

		metaCopy := meta
		prod.Meta = &metaCopy

		updated = append(updated, id)
	}

	return updated, unreadable
}
