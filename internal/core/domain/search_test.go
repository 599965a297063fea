package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelevanceScore(t *testing.T) {
	assert.InDelta(t, 1.0, RelevanceScore(0), 1e-9)
	assert.InDelta(t, 0.25, RelevanceScore(0.75), 1e-9)
	assert.InDelta(t, -1.0, RelevanceScore(2), 1e-9)
}

func TestProjectUpdate_Empty(t *testing.T) {
	assert.True(t, ProjectUpdate{}.Empty())
	name := "x"
	assert.False(t, ProjectUpdate{Name: &name}.Empty())
}

func TestProject_Stats(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Project{ID: 4, Name: "Alpha", Active: true, DocumentCount: 2, CreatedAt: created}

	stats := p.Stats()

	assert.Equal(t, 4, stats.ProjectID)
	assert.Equal(t, "Alpha", stats.Name)
	assert.Equal(t, 2, stats.DocumentCount)
	assert.True(t, stats.Active)
	assert.Equal(t, created, stats.CreatedAt)
	assert.Nil(t, stats.UpdatedAt)
}
