package driving

import (
	"context"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

// DocumentService ingests, lists and removes documents.
type DocumentService interface {
	// Ingest segments, embeds and indexes text as a new document.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.Document, error)

	// Get reconstructs a document from its chunk metadata.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Delete removes every chunk of a document. Returns false if none existed.
	Delete(ctx context.Context, documentID string) (bool, error)

	// List groups stored chunks into per-document summaries.
	List(ctx context.Context) ([]domain.DocumentSummary, error)

	// ClearAll removes every chunk. Project counters are left untouched.
	ClearAll(ctx context.Context) error

	// ReconcileProjectCounts recomputes project counters from the index.
	ReconcileProjectCounts(ctx context.Context) (map[int]int, error)

	// Dump returns the whole index as parallel arrays.
	Dump(ctx context.Context) (*domain.Dump, error)

	// Stats summarises the index.
	Stats(ctx context.Context) (*domain.Stats, error)
}

// ImportService ingests files from disk.
type ImportService interface {
	// ImportFile decodes the file by extension and ingests its text.
	ImportFile(ctx context.Context, path, uploadedBy string, projectID int) (*domain.Document, error)

	// Supports reports whether a decoder exists for the path's extension.
	Supports(path string) bool
}
