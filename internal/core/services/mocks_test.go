package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragindex/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/ragindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
	"github.com/custodia-labs/ragindex/internal/postprocessors/chunker"
)

// testEngine bundles the services over in-memory adapters.
type testEngine struct {
	index    *mockVectorIndex
	store    *memory.ProjectStore
	projects *ProjectService
	docs     *DocumentService
	search   *SearchService
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	seg, err := chunker.New()
	require.NoError(t, err)

	index := &mockVectorIndex{VectorIndex: memory.NewVectorIndex("test", 0)}
	store := memory.NewProjectStore()
	projects := NewProjectService(store)
	embedder := hashing.NewEmbeddingService(hashing.Config{Dimensions: 256, Bigrams: true})

	return &testEngine{
		index:    index,
		store:    store,
		projects: projects,
		docs:     NewDocumentService(index, embedder, seg, projects, DocumentConfig{BatchSize: 2, Concurrency: 3}),
		search:   NewSearchService(index, embedder, 5),
	}
}

// mockVectorIndex wraps the memory index with injectable failures.
type mockVectorIndex struct {
	*memory.VectorIndex

	mu          sync.Mutex
	insertErr   error
	getErr      error
	deleteErr   error
	insertCalls int
	afterInsert func()
}

func (m *mockVectorIndex) Insert(ctx context.Context, records []driven.VectorRecord) error {
	m.mu.Lock()
	m.insertCalls++
	err := m.insertErr
	hook := m.afterInsert
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if err := m.VectorIndex.Insert(ctx, records); err != nil {
		return err
	}
	if hook != nil {
		hook()
	}
	return nil
}

func (m *mockVectorIndex) Get(ctx context.Context, filter domain.Metadata) ([]driven.VectorHit, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.VectorIndex.Get(ctx, filter)
}

func (m *mockVectorIndex) DeleteWhere(ctx context.Context, filter domain.Metadata) (int, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return m.VectorIndex.DeleteWhere(ctx, filter)
}

// mockEmbedder returns canned results.
type mockEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []float32{1, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	m.calls++
	return m.vectors, m.err
}

func (m *mockEmbedder) Dimensions() int              { return 2 }
func (m *mockEmbedder) ModelName() string            { return "mock" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockSegmenter returns fixed chunks.
type mockSegmenter struct {
	chunks []string
}

func (m *mockSegmenter) Name() string            { return "mock" }
func (m *mockSegmenter) Split(_ string) []string { return m.chunks }

// mockDecoder returns the file bytes as text.
type mockDecoder struct {
	format string
	err    error
}

func (m *mockDecoder) Format() string       { return m.format }
func (m *mockDecoder) Extensions() []string { return []string{"." + m.format} }
func (m *mockDecoder) Decode(_ context.Context, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return string(data), nil
}

// mockRegistry maps extensions to decoders.
type mockRegistry struct {
	decoders map[string]driven.Decoder
}

func (m *mockRegistry) ForPath(path string) (driven.Decoder, error) {
	if d, ok := m.decoders[strings.ToLower(filepath.Ext(path))]; ok {
		return d, nil
	}
	return nil, domain.ErrUnsupportedFormat
}

func (m *mockRegistry) Formats() []string {
	out := make([]string, 0, len(m.decoders))
	for ext := range m.decoders {
		out = append(out, ext)
	}
	return out
}

var errBoom = errors.New("boom")
