package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyContent indicates a document with no extractable text.
	// It is a validation error and matches ErrInvalidInput.
	ErrEmptyContent = fmt.Errorf("%w: empty content", ErrInvalidInput)

	// ErrDuplicateName indicates a project name already in use (case-insensitive).
	ErrDuplicateName = errors.New("duplicate name")

	// ErrProjectInactive indicates an ingest into a soft-deleted project.
	ErrProjectInactive = errors.New("project inactive")

	// ErrChunking indicates non-empty text produced no chunks.
	ErrChunking = errors.New("chunking failed")

	// ErrUnsupportedFormat indicates no decoder exists for a file extension.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// Index Errors.

	// ErrIndex indicates the vector index rejected or failed an operation.
	ErrIndex = errors.New("index error")

	// ErrDimensionMismatch indicates a vector whose length differs from the index dimension.
	// Always reported wrapped together with ErrIndex.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// IndexError wraps cause as an index failure so that both ErrIndex and
// cause match with errors.Is.
func IndexError(cause error) error {
	return fmt.Errorf("%w: %w", ErrIndex, cause)
}
