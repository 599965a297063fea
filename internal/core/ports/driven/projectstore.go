package driven

import (
	"context"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

// ProjectStore persists the whole project registry as one unit.
// Callers serialise read-modify-write cycles; the store only loads and
// replaces snapshots.
type ProjectStore interface {
	// Load returns the current snapshot. A missing store yields an empty snapshot.
	Load(ctx context.Context) (ProjectSnapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snapshot ProjectSnapshot) error
}

// ProjectSnapshot is the full registry state.
type ProjectSnapshot struct {
	// LastID is the highest ID ever assigned, kept so IDs are never reused.
	LastID int

	// Projects is every stored project, active or not.
	Projects []domain.Project
}
