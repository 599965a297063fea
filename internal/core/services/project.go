package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
	"github.com/custodia-labs/ragindex/internal/core/ports/driving"
	"github.com/custodia-labs/ragindex/internal/logger"
	"github.com/custodia-labs/ragindex/internal/observability"
)

// Ensure ProjectService implements the interface.
var _ driving.ProjectService = (*ProjectService)(nil)

// ProjectService manages the project registry. Every mutation is a full
// load-modify-save cycle of the store, serialised by one mutex, so
// concurrent counter updates are never lost within a process.
type ProjectService struct {
	mu    sync.Mutex
	store driven.ProjectStore
	now   func() time.Time
}

// NewProjectService creates a new project service.
func NewProjectService(store driven.ProjectStore) *ProjectService {
	return &ProjectService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a project. The name must be non-blank and unique among all
// projects, active or not, ignoring case.
func (s *ProjectService) Create(ctx context.Context, name, description, createdBy string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
	}

	var created domain.Project
	err := s.mutate(ctx, func(snap *driven.ProjectSnapshot) error {
		if findByName(snap.Projects, name, 0) != nil {
			return fmt.Errorf("%w: project %q already exists", domain.ErrDuplicateName, name)
		}

		id := snap.LastID
		for _, p := range snap.Projects {
			if p.ID > id {
				id = p.ID
			}
		}
		id++

		created = domain.Project{
			ID:          id,
			Name:        name,
			Description: description,
			CreatedBy:   createdBy,
			CreatedAt:   s.now(),
			Active:      true,
		}
		snap.LastID = id
		snap.Projects = append(snap.Projects, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("created project %d %q", created.ID, created.Name)
	return &created, nil
}

// Get retrieves a project by ID.
func (s *ProjectService) Get(ctx context.Context, id int) (*domain.Project, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.Projects {
		if snap.Projects[i].ID == id {
			p := snap.Projects[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
}

// GetByName retrieves a project by name, ignoring case.
func (s *ProjectService) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if p := findByName(snap.Projects, strings.TrimSpace(name), 0); p != nil {
		found := *p
		return &found, nil
	}
	return nil, fmt.Errorf("project %q: %w", name, domain.ErrNotFound)
}

// List returns projects ordered by ID.
func (s *ProjectService) List(ctx context.Context, activeOnly bool) ([]domain.Project, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(snap.Projects))
	for _, p := range snap.Projects {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update changes the given fields and stamps UpdatedAt.
// Reactivating a project clears DeactivatedAt.
func (s *ProjectService) Update(ctx context.Context, id int, update domain.ProjectUpdate) (*domain.Project, error) {
	var newName string
	if update.Name != nil {
		newName = strings.TrimSpace(*update.Name)
		if newName == "" {
			return nil, fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
		}
	}

	var updated domain.Project
	err := s.mutate(ctx, func(snap *driven.ProjectSnapshot) error {
		p := findByID(snap.Projects, id)
		if p == nil {
			return fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
		}
		if update.Name != nil {
			if findByName(snap.Projects, newName, id) != nil {
				return fmt.Errorf("%w: project %q already exists", domain.ErrDuplicateName, newName)
			}
			p.Name = newName
		}
		if update.Description != nil {
			p.Description = *update.Description
		}
		now := s.now()
		if update.Active != nil && *update.Active != p.Active {
			p.Active = *update.Active
			if p.Active {
				p.DeactivatedAt = nil
			} else {
				p.DeactivatedAt = &now
			}
		}
		p.UpdatedAt = &now
		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete deactivates a project, or removes it entirely when hard is set.
// Documents assigned to a removed project keep their project_id.
func (s *ProjectService) Delete(ctx context.Context, id int, hard bool) error {
	return s.mutate(ctx, func(snap *driven.ProjectSnapshot) error {
		for i := range snap.Projects {
			if snap.Projects[i].ID != id {
				continue
			}
			if hard {
				snap.Projects = append(snap.Projects[:i], snap.Projects[i+1:]...)
				logger.Info("removed project %d", id)
				return nil
			}
			now := s.now()
			snap.Projects[i].Active = false
			snap.Projects[i].DeactivatedAt = &now
			logger.Info("deactivated project %d", id)
			return nil
		}
		return fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
	})
}

// IncrementDocumentCount adds one to a project's document counter.
func (s *ProjectService) IncrementDocumentCount(ctx context.Context, id int) error {
	return s.adjustCount(ctx, id, +1, "increment")
}

// DecrementDocumentCount subtracts one from a project's document counter,
// stopping at zero.
func (s *ProjectService) DecrementDocumentCount(ctx context.Context, id int) error {
	return s.adjustCount(ctx, id, -1, "decrement")
}

func (s *ProjectService) adjustCount(ctx context.Context, id, delta int, op string) error {
	err := s.mutate(ctx, func(snap *driven.ProjectSnapshot) error {
		p := findByID(snap.Projects, id)
		if p == nil {
			return fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
		}
		p.DocumentCount = max(0, p.DocumentCount+delta)
		return nil
	})
	if err == nil {
		observability.ProjectCounterUpdatesTotal.WithLabelValues(op).Inc()
	}
	return err
}

// SetDocumentCounts overwrites every project's counter from counts.
// Projects missing from counts are set to zero.
func (s *ProjectService) SetDocumentCounts(ctx context.Context, counts map[int]int) error {
	err := s.mutate(ctx, func(snap *driven.ProjectSnapshot) error {
		for i := range snap.Projects {
			snap.Projects[i].DocumentCount = max(0, counts[snap.Projects[i].ID])
		}
		return nil
	})
	if err == nil {
		observability.ProjectCounterUpdatesTotal.WithLabelValues("reconcile").Inc()
	}
	return err
}

// Stats returns the statistics view of a project.
func (s *ProjectService) Stats(ctx context.Context, id int) (*domain.ProjectStats, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stats := p.Stats()
	return &stats, nil
}

func (s *ProjectService) load(ctx context.Context) (driven.ProjectSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.store.Load(ctx)
	if err != nil {
		return driven.ProjectSnapshot{}, fmt.Errorf("loading projects: %w", err)
	}
	return snap, nil
}

// mutate runs fn against a fresh snapshot and saves the result when fn succeeds.
func (s *ProjectService) mutate(ctx context.Context, fn func(*driven.ProjectSnapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}
	if err := fn(&snap); err != nil {
		return err
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("saving projects: %w", err)
	}
	return nil
}

func findByID(projects []domain.Project, id int) *domain.Project {
	for i := range projects {
		if projects[i].ID == id {
			return &projects[i]
		}
	}
	return nil
}

// findByName matches case-insensitively, skipping the project with ID except.
func findByName(projects []domain.Project, name string, except int) *domain.Project {
	for i := range projects {
		if projects[i].ID != except && strings.EqualFold(projects[i].Name, name) {
			return &projects[i]
		}
	}
	return nil
}
