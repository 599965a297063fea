package domain

import "time"

// Project groups documents and tracks how many are assigned to it.
type Project struct {
	// ID is a positive integer assigned at creation. IDs are never reused.
	ID int `json:"id"`

	// Name is unique across all projects, compared case-insensitively.
	Name string `json:"name"`

	// Description is free text.
	Description string `json:"description"`

	// CreatedBy identifies the creator.
	CreatedBy string `json:"created_by"`

	// CreatedAt is set once at creation.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is set on every update.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// DeactivatedAt is set by a soft delete.
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`

	// Active is false after a soft delete.
	Active bool `json:"active"`

	// DocumentCount is the number of documents assigned to the project.
	// Never negative.
	DocumentCount int `json:"document_count"`
}

// ProjectUpdate lists the fields to change. Nil fields are left alone.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Active      *bool
}

// Empty reports whether the update changes nothing.
func (u ProjectUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Active == nil
}

// ProjectStats is a read-only statistics view of a project.
type ProjectStats struct {
	ProjectID     int        `json:"project_id"`
	Name          string     `json:"name"`
	DocumentCount int        `json:"document_count"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Stats returns the statistics view of the project.
func (p *Project) Stats() ProjectStats {
	return ProjectStats{
		ProjectID:     p.ID,
		Name:          p.Name,
		DocumentCount: p.DocumentCount,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
