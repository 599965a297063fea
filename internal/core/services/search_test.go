package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragindex/internal/core/domain"
)

func TestSearchService_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	doc := ingestText(t, e, "policy.txt",
		"Employees accrue vacation days monthly. Unused vacation carries over to the next year.", 0)

	results, err := e.search.Search(ctx, "vacation carries over", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	top := results[0]
	assert.Equal(t, doc.ChunkIDs[0], top.ChunkID)
	assert.Equal(t, doc.ID, top.DocumentID)
	assert.Contains(t, top.Content, "vacation")
	assert.Equal(t, "policy.txt", top.Metadata.String(domain.MetaFilename))
	assert.InDelta(t, 1-top.Distance, top.Score, 1e-9)
	assert.GreaterOrEqual(t, top.Distance, 0.0)
	assert.LessOrEqual(t, top.Distance, 2.0)
}

func TestSearchService_RanksRelevantDocumentFirst(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	ingestText(t, e, "k8s.txt", "Kubernetes schedules containers onto cluster nodes.", 0)
	vacation := ingestText(t, e, "hr.txt", "Employees accrue vacation days under the vacation policy.", 0)
	ingestText(t, e, "db.txt", "Postgres replicates write-ahead logs to standby servers.", 0)

	results, err := e.search.Search(ctx, "vacation policy", domain.SearchOptions{Limit: 3})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, vacation.ID, results[0].DocumentID)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
	assert.LessOrEqual(t, results[1].Distance, results[2].Distance)
}

func TestSearchService_ProjectFilterAndLimit(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	p, err := e.projects.Create(ctx, "Alpha", "", "")
	require.NoError(t, err)
	inProject := ingestText(t, e, "a.txt", "shared words here", p.ID)
	ingestText(t, e, "b.txt", "shared words here", 0)
	ingestText(t, e, "c.txt", strings.Repeat("x", 2500), 0)

	results, err := e.search.Search(ctx, "shared words", domain.SearchOptions{ProjectID: p.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, inProject.ID, results[0].DocumentID)

	results, err = e.search.Search(ctx, "shared words", domain.SearchOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = e.search.Search(ctx, "shared words", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestSearchService_EmptyIndex(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.search.Search(context.Background(), "anything", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_Validation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.search.Search(ctx, "   ", domain.SearchOptions{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = e.search.Search(ctx, "q", domain.SearchOptions{Filter: domain.Metadata{"x": []int{1}}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSearchService_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("no embedder", func(t *testing.T) {
		svc := NewSearchService(memory.NewVectorIndex("t", 0), nil, 0)
		_, err := svc.Search(ctx, "q", domain.SearchOptions{})
		assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	})

	t.Run("embedder error", func(t *testing.T) {
		svc := NewSearchService(memory.NewVectorIndex("t", 0), &mockEmbedder{err: errBoom}, 0)
		_, err := svc.Search(ctx, "q", domain.SearchOptions{})
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		svc := NewSearchService(memory.NewVectorIndex("t", 3), &mockEmbedder{}, 0)
		_, err := svc.Search(ctx, "q", domain.SearchOptions{})
		assert.True(t, errors.Is(err, domain.ErrIndex))
	})
}
