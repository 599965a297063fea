// Package postprocessors builds text segmenters from configuration.
package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// BuilderFunc creates a Segmenter from the chunking settings.
type BuilderFunc func(cfg domain.ChunkingSettings) (driven.Segmenter, error)

// Registry maps segmenter names to their builders.
// It allows dynamic construction of segmenters from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new segmenter registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a segmenter builder to the registry.
// Name should match the segmenter's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the segmenter named by cfg.Strategy.
func (r *Registry) Build(cfg domain.ChunkingSettings) (driven.Segmenter, error) {
	name := cfg.Strategy
	if name == "" {
		name = domain.DefaultChunkStrategy
	}
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, name)
	}
	return builder(cfg)
}

// Has returns true if a segmenter with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered segmenter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
