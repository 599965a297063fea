package postprocessors

import (
	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
	"github.com/custodia-labs/ragindex/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in segmenters with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(domain.DefaultChunkStrategy, buildChunker)
}

// NewDefaultRegistry returns a registry with the built-in segmenters.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// buildChunker creates the overlapping-window chunker. Zero sizes fall back
// to the chunker defaults; invalid combinations are rejected.
func buildChunker(cfg domain.ChunkingSettings) (driven.Segmenter, error) {
	var opts []chunker.Option
	if cfg.ChunkSize > 0 {
		opts = append(opts, chunker.WithChunkSize(cfg.ChunkSize))
	}
	opts = append(opts, chunker.WithOverlap(cfg.Overlap))

	p, err := chunker.New(opts...)
	if err != nil {
		return nil, err
	}
	return p, nil
}
