package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
	"github.com/custodia-labs/ragindex/internal/core/ports/driving"
)

// Ensure ImportService implements the interface.
var _ driving.ImportService = (*ImportService)(nil)

// ImportService reads files, extracts their text and hands it to ingest.
type ImportService struct {
	decoders  driven.DecoderRegistry
	documents driving.DocumentService
}

// NewImportService creates a new import service.
func NewImportService(decoders driven.DecoderRegistry, documents driving.DocumentService) *ImportService {
	return &ImportService{decoders: decoders, documents: documents}
}

// Supports reports whether path has a decodable extension.
func (s *ImportService) Supports(path string) bool {
	_, err := s.decoders.ForPath(path)
	return err == nil
}

// ImportFile ingests the file at path.
func (s *ImportService) ImportFile(ctx context.Context, path, uploadedBy string, projectID int) (*domain.Document, error) {
	dec, err := s.decoders.ForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text, err := dec.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return s.documents.Ingest(ctx, domain.IngestRequest{
		Text:       text,
		Filename:   filepath.Base(path),
		Format:     dec.Format(),
		SizeBytes:  int64(len(data)),
		UploadedBy: uploadedBy,
		ProjectID:  projectID,
	})
}
