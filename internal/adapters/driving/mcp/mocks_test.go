package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragindex/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/ragindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/services"
	"github.com/custodia-labs/ragindex/internal/postprocessors/chunker"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error

	query string
	opts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.query = query
	m.opts = opts
	return m.results, m.err
}

// newTestPorts wires the real services over in-memory adapters.
func newTestPorts(t *testing.T) *Ports {
	t.Helper()

	seg, err := chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(10))
	require.NoError(t, err)

	index := memory.NewVectorIndex("test", 0)
	embedder := hashing.NewEmbeddingService(hashing.Config{Dimensions: 128})
	projects := services.NewProjectService(memory.NewProjectStore())

	return &Ports{
		Search:   services.NewSearchService(index, embedder, 5),
		Document: services.NewDocumentService(index, embedder, seg, projects, services.DocumentConfig{}),
		Project:  projects,
	}
}
