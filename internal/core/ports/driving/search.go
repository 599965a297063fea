package driving

import (
	"context"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

// SearchService provides retrieval to external actors.
type SearchService interface {
	// Search returns the chunks nearest to query, best first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
