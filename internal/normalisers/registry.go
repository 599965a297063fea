package normalisers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
	"github.com/custodia-labs/ragindex/internal/normalisers/docx"
	"github.com/custodia-labs/ragindex/internal/normalisers/html"
	"github.com/custodia-labs/ragindex/internal/normalisers/markdown"
	"github.com/custodia-labs/ragindex/internal/normalisers/pdf"
	"github.com/custodia-labs/ragindex/internal/normalisers/plaintext"
)

// Verify interface compliance.
var _ driven.DecoderRegistry = (*Registry)(nil)

// Registry maps file extensions to decoders. Later registrations win.
type Registry struct {
	byExt map[string]driven.Decoder
}

// New creates a registry holding the given decoders.
func New(decoders ...driven.Decoder) *Registry {
	r := &Registry{byExt: make(map[string]driven.Decoder)}
	for _, d := range decoders {
		r.Register(d)
	}
	return r
}

// Default returns a registry with every built-in decoder.
func Default() *Registry {
	return New(plaintext.New(), markdown.New(), html.New(), docx.New(), pdf.New())
}

// Register adds a decoder for each of its extensions.
func (r *Registry) Register(d driven.Decoder) {
	for _, ext := range d.Extensions() {
		r.byExt[strings.ToLower(ext)] = d
	}
}

// ForPath returns the decoder for path's extension, matched case-insensitively.
func (r *Registry) ForPath(path string) (driven.Decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if d, ok := r.byExt[ext]; ok {
		return d, nil
	}
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no extension", domain.ErrUnsupportedFormat, filepath.Base(path))
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
}

// Formats lists the supported extensions in sorted order.
func (r *Registry) Formats() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
