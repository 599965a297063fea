package driving

import (
	"context"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

// ProjectService manages projects and their document counters.
type ProjectService interface {
	// Create adds a project with a unique (case-insensitive) name.
	Create(ctx context.Context, name, description, createdBy string) (*domain.Project, error)

	// Get retrieves a project by ID.
	Get(ctx context.Context, id int) (*domain.Project, error)

	// GetByName retrieves a project by name, case-insensitively.
	GetByName(ctx context.Context, name string) (*domain.Project, error)

	// List returns projects ordered by ID.
	List(ctx context.Context, activeOnly bool) ([]domain.Project, error)

	// Update changes the given fields and stamps UpdatedAt.
	Update(ctx context.Context, id int, update domain.ProjectUpdate) (*domain.Project, error)

	// Delete deactivates (soft) or removes (hard) a project.
	Delete(ctx context.Context, id int, hard bool) error

	// IncrementDocumentCount adds one to the counter.
	IncrementDocumentCount(ctx context.Context, id int) error

	// DecrementDocumentCount subtracts one, never going below zero.
	DecrementDocumentCount(ctx context.Context, id int) error

	// SetDocumentCounts overwrites counters; projects absent from counts become zero.
	SetDocumentCounts(ctx context.Context, counts map[int]int) error

	// Stats returns the statistics view of a project.
	Stats(ctx context.Context, id int) (*domain.ProjectStats, error)
}
