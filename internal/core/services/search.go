package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
	"github.com/custodia-labs/ragindex/internal/core/ports/driving"
	"github.com/custodia-labs/ragindex/internal/logger"
	"github.com/custodia-labs/ragindex/internal/observability"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService embeds queries and retrieves the nearest chunks.
type SearchService struct {
	index        driven.VectorIndex
	embedder     driven.EmbeddingService
	defaultLimit int
}

// NewSearchService creates a new search service.
func NewSearchService(index driven.VectorIndex, embedder driven.EmbeddingService, defaultLimit int) *SearchService {
	if defaultLimit <= 0 {
		defaultLimit = domain.DefaultSearchLimit
	}
	return &SearchService{
		index:        index,
		embedder:     embedder,
		defaultLimit: defaultLimit,
	}
}

// Search returns up to opts.Limit chunks ordered by ascending distance.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (results []domain.SearchResult, err error) {
	start := time.Now()
	defer func() {
		observability.SearchesTotal.WithLabelValues(observability.Status(err)).Inc()
		observability.ObserveSince(observability.SearchDuration, start)
	}()

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	filter := opts.Filter.Clone()
	if opts.ProjectID != domain.UnassignedProjectID {
		if filter == nil {
			filter = make(domain.Metadata, 1)
		}
		filter[domain.MetaProjectID] = opts.ProjectID
	}

	logger.Section("Search")
	logger.Debug("query=%q limit=%d filter=%v", query, limit, filter)

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.index.Query(ctx, vec, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	results = make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = domain.SearchResult{
			ChunkID:    h.ID,
			DocumentID: h.Metadata.String(domain.MetaDocumentID),
			Content:    h.Text,
			Metadata:   h.Metadata,
			Distance:   h.Distance,
			Score:      domain.RelevanceScore(h.Distance),
		}
	}
	logger.Debug("%d results", len(results))
	return results, nil
}
