// Package docx provides a Decoder for Word (.docx) documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.Decoder = (*Decoder)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Decoder handles DOCX documents.
type Decoder struct{}

// New creates a new DOCX decoder.
func New() *Decoder {
	return &Decoder{}
}

// Format returns the format name.
func (d *Decoder) Format() string {
	return "docx"
}

// Extensions returns the handled file extensions.
func (d *Decoder) Extensions() []string {
	return []string{".docx"}
}

// Decode extracts paragraph text from word/document.xml, one paragraph per
// line. The core title, when set and not already the first line, is
// prepended.
func (d *Decoder) Decode(_ context.Context, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive: %w", domain.ErrInvalidInput, err)
	}

	docXML, err := readPart(reader, documentPart)
	if err != nil {
		return "", err
	}
	if docXML == nil {
		return "", fmt.Errorf("%w: docx has no %s", domain.ErrInvalidInput, documentPart)
	}

	body, err := parseDocumentXML(docXML)
	if err != nil {
		return "", err
	}

	title := extractTitle(reader)
	if title == "" || strings.HasPrefix(body, title) {
		return body, nil
	}
	if body == "" {
		return title, nil
	}
	return title + "\n" + body, nil
}

// readPart returns the bytes of a named archive entry, or nil if absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %w", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrInvalidInput, name, err)
		}
		return content, nil
	}
	return nil, nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML joins the runs of each paragraph and the paragraphs by newline.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: parsing %s: %w", domain.ErrInvalidInput, documentPart, err)
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}
	return strings.TrimSpace(result.String()), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads dc:title from docProps/core.xml; "" when unset or unreadable.
func extractTitle(reader *zip.Reader) string {
	content, err := readPart(reader, corePart)
	if err != nil || content == nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
