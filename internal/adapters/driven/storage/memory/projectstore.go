package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// Ensure ProjectStore implements the interface.
var _ driven.ProjectStore = (*ProjectStore)(nil)

// ProjectStore is an in-memory implementation of driven.ProjectStore.
type ProjectStore struct {
	mu       sync.RWMutex
	snapshot driven.ProjectSnapshot

	// SaveErr, when set, is returned by Save instead of storing.
	SaveErr error
}

// NewProjectStore creates a new in-memory project store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{}
}

// Load returns a copy of the stored snapshot.
func (s *ProjectStore) Load(_ context.Context) (driven.ProjectSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.snapshot), nil
}

// Save replaces the stored snapshot.
func (s *ProjectStore) Save(_ context.Context, snapshot driven.ProjectSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.snapshot = copySnapshot(snapshot)
	return nil
}

func copySnapshot(in driven.ProjectSnapshot) driven.ProjectSnapshot {
	out := driven.ProjectSnapshot{LastID: in.LastID}
	if in.Projects != nil {
		out.Projects = make([]domain.Project, len(in.Projects))
		copy(out.Projects, in.Projects)
	}
	return out
}
