package mcp

import (
	"github.com/custodia-labs/ragindex/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides retrieval.
	Search driving.SearchService

	// Document ingests, lists and deletes documents.
	Document driving.DocumentService

	// Project lists projects.
	Project driving.ProjectService
}

// Validate ensures all required ports are set.
// Document and Project are optional; their tools report an error when absent.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
