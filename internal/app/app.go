// Package app wires adapters into the engine services.
//
// Open builds one Engine from Settings; Close releases the index and the
// embedding provider. There are no package-level singletons: every driving
// adapter receives the services it needs from an Engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ragindex/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/ragindex/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/ragindex/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragindex/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/ragindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragindex/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/ragindex/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
	"github.com/custodia-labs/ragindex/internal/core/services"
	"github.com/custodia-labs/ragindex/internal/logger"
	"github.com/custodia-labs/ragindex/internal/normalisers"
	"github.com/custodia-labs/ragindex/internal/postprocessors"
)

// DefaultOpenAIKeyEnv is read when embedding.api_key_env is unset.
const DefaultOpenAIKeyEnv = "OPENAI_API_KEY"

// Engine holds the wired services and the adapters they share.
type Engine struct {
	Settings domain.Settings

	Index     driven.VectorIndex
	Embedder  driven.EmbeddingService
	Segmenter driven.Segmenter
	Decoders  *normalisers.Registry

	Projects  *services.ProjectService
	Documents *services.DocumentService
	Search    *services.SearchService
	Import    *services.ImportService
}

// Open validates settings and builds an engine. Adapters opened before a
// failure are closed again.
func Open(ctx context.Context, settings domain.Settings) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.Storage.DataDir == "" {
		return nil, fmt.Errorf("%w: storage.data_dir is required", domain.ErrInvalidInput)
	}

	segmenter, err := postprocessors.NewDefaultRegistry().Build(settings.Chunking)
	if err != nil {
		return nil, err
	}

	embedder, err := NewEmbedder(settings.Embedding, os.Getenv)
	if err != nil {
		return nil, err
	}

	index, err := NewIndex(ctx, settings)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	if dim := index.Info().Dimensions; dim != 0 && dim != embedder.Dimensions() {
		logger.Warn("index %s has %d dimensions but %s reports %d; ingest and search will fail until they agree",
			index.Info().Collection, dim, embedder.ModelName(), embedder.Dimensions())
	}

	projects := services.NewProjectService(jsonfile.NewProjectStore(ProjectsFile(settings.Storage)))
	documents := services.NewDocumentService(index, embedder, segmenter, projects, services.DocumentConfig{
		BatchSize:   settings.Embedding.BatchSize,
		Concurrency: settings.Embedding.Concurrency,
	})
	decoders := normalisers.Default()

	logger.Debug("engine open: backend=%s collection=%s embedder=%s segmenter=%s",
		settings.Index.Backend, settings.Index.Collection, embedder.ModelName(), segmenter.Name())

	return &Engine{
		Settings:  settings,
		Index:     index,
		Embedder:  embedder,
		Segmenter: segmenter,
		Decoders:  decoders,
		Projects:  projects,
		Documents: documents,
		Search:    services.NewSearchService(index, embedder, settings.Search.DefaultLimit),
		Import:    services.NewImportService(decoders, documents),
	}, nil
}

// Close releases the index and the embedding provider.
func (e *Engine) Close() error {
	return errors.Join(e.Index.Close(), e.Embedder.Close())
}

// ProjectsFile returns the project registry path for the storage settings.
func ProjectsFile(s domain.StorageSettings) string {
	if s.ProjectsFile != "" {
		return s.ProjectsFile
	}
	return filepath.Join(s.DataDir, jsonfile.DefaultFile)
}

// NewEmbedder builds the configured embedding provider. getenv resolves the
// API key variable.
func NewEmbedder(cfg domain.EmbeddingSettings, getenv func(string) string) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case domain.EmbeddingProviderHashing, "":
		return hashing.NewEmbeddingService(hashing.Config{Dimensions: cfg.Dimensions}), nil

	case domain.EmbeddingProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil

	case domain.EmbeddingProviderOpenAI:
		keyEnv := cfg.APIKeyEnv
		if keyEnv == "" {
			keyEnv = DefaultOpenAIKeyEnv
		}
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:            getenv(keyEnv),
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set %s)", err, keyEnv)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}

// NewIndex opens the configured vector index backend.
func NewIndex(ctx context.Context, settings domain.Settings) (driven.VectorIndex, error) {
	idx := settings.Index
	switch idx.Backend {
	case domain.IndexBackendMemory:
		return memory.NewVectorIndex(idx.Collection, idx.Dimensions), nil

	case domain.IndexBackendSQLite:
		x, err := sqlite.OpenVectorIndex(ctx, settings.Storage.DataDir, idx.Collection, idx.Dimensions)
		if err != nil {
			return nil, err
		}
		return x, nil

	case domain.IndexBackendQdrant:
		x, err := qdrant.New(ctx, qdrant.Config{
			Host:       idx.Qdrant.Host,
			Port:       idx.Qdrant.Port,
			APIKey:     idx.Qdrant.APIKey,
			Collection: idx.Collection,
			Dimensions: idx.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return x, nil

	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, idx.Backend)
	}
}
