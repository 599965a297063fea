package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for engine resources.
	uriScheme = "ragindex://"

	mimeJSON = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "projects",
		Name:        "projects",
		Description: "All projects with document counts",
		MIMEType:    mimeJSON,
	}, s.handleProjectsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "projects/{projectId}/documents",
		Name:        "project-documents",
		Description: "Documents assigned to a project",
		MIMEType:    mimeJSON,
	}, s.handleProjectDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "Metadata and chunk IDs of a document",
		MIMEType:    mimeJSON,
	}, s.handleDocumentResource)
}

// handleProjectsResource returns every project.
func (s *Server) handleProjectsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Project == nil {
		return jsonResult(req.Params.URI, []domain.ProjectStats{})
	}
	projects, err := s.listProjects(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return jsonResult(req.Params.URI, projects)
}

// handleProjectDocumentsResource returns the documents of one project.
func (s *Server) handleProjectDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	projectID, ok := extractProjectID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.listDocuments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return jsonResult(req.Params.URI, docs)
}

// handleDocumentResource returns one reconstructed document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return jsonResult(req.Params.URI, doc)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}

// extractProjectID parses ragindex://projects/{projectId}/documents.
func extractProjectID(uri string) (int, bool) {
	const prefix = uriScheme + "projects/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// extractDocumentID extracts the document ID from ragindex://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
