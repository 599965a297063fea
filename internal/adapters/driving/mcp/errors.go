// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// retrieval engine. It lets AI assistants search indexed documents, browse
// projects and add or remove documents.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrDocumentsUnavailable is returned by document tools when no document service is wired.
	ErrDocumentsUnavailable = errors.New("mcp: document service is not configured")

	// ErrProjectsUnavailable is returned by project tools when no project service is wired.
	ErrProjectsUnavailable = errors.New("mcp: project service is not configured")
)
