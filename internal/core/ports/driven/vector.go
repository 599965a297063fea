package driven

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

// VectorIndex stores chunk vectors with their text and metadata and answers
// nearest-neighbour queries under cosine distance.
//
// Insert is all-or-nothing: either every record becomes visible to readers
// or none does.
type VectorIndex interface {
	// Insert adds a batch of records. Duplicate or empty IDs and vectors
	// whose length differs from the index dimension are rejected before
	// anything is written.
	Insert(ctx context.Context, records []VectorRecord) error

	// Query returns up to k records nearest to vector, ascending by distance.
	// Only records whose metadata matches every filter pair are considered.
	Query(ctx context.Context, vector []float32, k int, filter domain.Metadata) ([]VectorHit, error)

	// Get returns every record matching filter without vectors.
	// A nil filter returns the whole index.
	Get(ctx context.Context, filter domain.Metadata) ([]VectorHit, error)

	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// DeleteWhere removes every record matching filter and returns how many were removed.
	// An empty filter is rejected with ErrInvalidInput.
	DeleteWhere(ctx context.Context, filter domain.Metadata) (int, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Clear removes every record. The metric and a configured dimension are kept.
	Clear(ctx context.Context) error

	// Info describes the index for statistics.
	Info() IndexInfo

	// Close releases resources.
	Close() error
}

// VectorRecord is one entry of an insert batch.
type VectorRecord struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata domain.Metadata
}

// VectorHit is a stored record returned by Query or Get.
type VectorHit struct {
	// ID is the chunk ID.
	ID string

	// Text is the chunk content.
	Text string

	// Metadata is the stored chunk metadata.
	Metadata domain.Metadata

	// Distance is the cosine distance to the query (0 for Get).
	Distance float64
}

// IndexInfo describes a vector index instance.
type IndexInfo struct {
	Backend    domain.IndexBackend
	Collection string
	Dimensions int
}

// ZipRecords builds a record batch from parallel arrays, rejecting
// arrays of unequal length.
func ZipRecords(ids []string, vectors [][]float32, texts []string, metas []domain.Metadata) ([]VectorRecord, error) {
	n := len(ids)
	if len(vectors) != n || len(texts) != n || len(metas) != n {
		return nil, fmt.Errorf("%w: batch arrays differ in length (ids=%d vectors=%d texts=%d metadatas=%d)",
			domain.ErrInvalidInput, n, len(vectors), len(texts), len(metas))
	}
	records := make([]VectorRecord, n)
	for i := range ids {
		records[i] = VectorRecord{ID: ids[i], Vector: vectors[i], Text: texts[i], Metadata: metas[i]}
	}
	return records, nil
}
