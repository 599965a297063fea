// Package chunker splits document text into overlapping segments.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// separators are tried in order when looking for a natural cut point.
// The first kind found anywhere in the window wins.
var separators = [][]rune{[]rune(". "), []rune("\n"), []rune(" ")}

// Processor splits text into chunks of at most chunkSize characters,
// consecutive chunks sharing up to overlap characters.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker with the given options.
// Returns ErrInvalidInput unless 0 <= overlap < chunkSize.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split splits text using the processor's configuration.
func (p *Processor) Split(text string) []string {
	return split([]rune(text), p.chunkSize, p.overlap)
}

// Split splits text into trimmed, non-empty chunks. Lengths are measured
// in Unicode code points.
//
// Each window of chunkSize characters is cut just after the last ". ",
// failing that the last newline, failing that the last space. A window
// without any separator is cut at its full length. The next window starts
// overlap characters before the cut.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	return split([]rune(text), chunkSize, overlap), nil
}

func validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidInput, chunkSize, overlap)
	}
	return nil
}

func split(text []rune, chunkSize, overlap int) []string {
	n := len(text)
	if strings.TrimSpace(string(text)) == "" {
		return nil
	}

	chunks := make([]string, 0, n/(chunkSize-overlap)+1)
	start := 0
	for start < n {
		end := start + chunkSize
		if end < n {
			if cut := lastSeparator(text[start:end]); cut > 0 {
				end = start + cut
			}
		} else {
			end = n
		}

		if piece := strings.TrimSpace(string(text[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}
		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			// A cut this early would stall; continue from the cut instead.
			next = end
		}
		start = next
	}
	return chunks
}

// lastSeparator returns the offset just past the preferred separator in
// window, or -1 when none occurs.
func lastSeparator(window []rune) int {
	for _, sep := range separators {
		if i := lastIndex(window, sep); i >= 0 {
			return i + len(sep)
		}
	}
	return -1
}

func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
