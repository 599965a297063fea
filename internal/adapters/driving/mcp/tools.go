package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query     string `json:"query" jsonschema:"the search query to find relevant passages"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default from config)"`
	ProjectID int    `json:"project_id,omitempty" jsonschema:"restrict results to one project"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename,omitempty"`
	ProjectID  int     `json:"project_id,omitempty"`
	Score      float64 `json:"score"`
	Distance   float64 `json:"distance"`
	Content    string  `json:"content"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	ProjectID int `json:"project_id,omitempty" jsonschema:"only list documents of this project"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput summarises one document.
type DocumentOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Format     string `json:"format"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedBy string `json:"uploaded_by,omitempty"`
	ProjectID  int    `json:"project_id,omitempty"`
	Chunks     int    `json:"chunks"`
}

// ListProjectsInput is the input schema for the list_projects tool.
type ListProjectsInput struct {
	ActiveOnly bool `json:"active_only,omitempty" jsonschema:"hide deactivated projects"`
}

// ListProjectsOutput is the output schema for the list_projects tool.
type ListProjectsOutput struct {
	Projects []domain.ProjectStats `json:"projects"`
	Count    int                   `json:"count"`
}

// IngestTextInput is the input schema for the ingest_text tool.
type IngestTextInput struct {
	Text       string `json:"text" jsonschema:"plain text to index"`
	Filename   string `json:"filename" jsonschema:"display name for the document"`
	ProjectID  int    `json:"project_id,omitempty" jsonschema:"project to assign the document to"`
	UploadedBy string `json:"uploaded_by,omitempty" jsonschema:"who is adding the document"`
}

// IngestTextOutput is the output schema for the ingest_text tool.
type IngestTextOutput struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

// DeleteDocumentInput is the input schema for the delete_document tool.
type DeleteDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to remove"`
}

// DeleteDocumentOutput is the output schema for the delete_document tool.
type DeleteDocumentOutput struct {
	Deleted bool `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the indexed passages most relevant to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List indexed documents",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_projects",
		Description: "List projects with their document counts",
	}, s.handleListProjects)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_text",
		Description: "Split, embed and index a piece of text as a new document",
	}, s.handleIngestText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Remove a document and all of its passages from the index",
	}, s.handleDeleteDocument)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{Limit: input.Limit, ProjectID: input.ProjectID}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		filename := results[i].Metadata.String(domain.MetaFilename)
		projectID, _ := results[i].Metadata.Int(domain.MetaProjectID)
		output.Results[i] = SearchResultOutput{
			ChunkID:    results[i].ChunkID,
			DocumentID: results[i].DocumentID,
			Filename:   filename,
			ProjectID:  projectID,
			Score:      results[i].Score,
			Distance:   results[i].Distance,
			Content:    results[i].Content,
		}
	}

	return nil, output, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.listDocuments(ctx, input.ProjectID)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	return nil, ListDocumentsOutput{Documents: docs, Count: len(docs)}, nil
}

func (s *Server) listDocuments(ctx context.Context, projectID int) ([]DocumentOutput, error) {
	if s.ports.Document == nil {
		return nil, ErrDocumentsUnavailable
	}
	summaries, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]DocumentOutput, 0, len(summaries))
	for _, d := range summaries {
		if projectID != 0 && d.ProjectID != projectID {
			continue
		}
		docs = append(docs, DocumentOutput{
			ID:         d.ID,
			Filename:   d.Filename,
			Format:     d.Format,
			SizeBytes:  d.SizeBytes,
			UploadedBy: d.UploadedBy,
			ProjectID:  d.ProjectID,
			Chunks:     d.Chunks,
		})
	}
	return docs, nil
}

// handleListProjects handles the list_projects tool invocation.
func (s *Server) handleListProjects(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListProjectsInput,
) (*mcp.CallToolResult, ListProjectsOutput, error) {
	projects, err := s.listProjects(ctx, input.ActiveOnly)
	if err != nil {
		return nil, ListProjectsOutput{}, err
	}
	return nil, ListProjectsOutput{Projects: projects, Count: len(projects)}, nil
}

func (s *Server) listProjects(ctx context.Context, activeOnly bool) ([]domain.ProjectStats, error) {
	if s.ports.Project == nil {
		return nil, ErrProjectsUnavailable
	}
	projects, err := s.ports.Project.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	stats := make([]domain.ProjectStats, len(projects))
	for i := range projects {
		stats[i] = projects[i].Stats()
	}
	return stats, nil
}

// handleIngestText handles the ingest_text tool invocation.
func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (*mcp.CallToolResult, IngestTextOutput, error) {
	if s.ports.Document == nil {
		return nil, IngestTextOutput{}, ErrDocumentsUnavailable
	}
	doc, err := s.ports.Document.Ingest(ctx, domain.IngestRequest{
		Text:       input.Text,
		Filename:   input.Filename,
		UploadedBy: input.UploadedBy,
		ProjectID:  input.ProjectID,
	})
	if err != nil {
		return nil, IngestTextOutput{}, err
	}
	return nil, IngestTextOutput{DocumentID: doc.ID, Chunks: len(doc.ChunkIDs)}, nil
}

// handleDeleteDocument handles the delete_document tool invocation.
func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteDocumentInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	if s.ports.Document == nil {
		return nil, DeleteDocumentOutput{}, ErrDocumentsUnavailable
	}
	deleted, err := s.ports.Document.Delete(ctx, input.DocumentID)
	if err != nil {
		return nil, DeleteDocumentOutput{}, err
	}
	return nil, DeleteDocumentOutput{Deleted: deleted}, nil
}
