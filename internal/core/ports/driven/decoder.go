package driven

import "context"

// Decoder extracts plain text from a file's bytes.
// Each decoder handles one format identified by file extension.
type Decoder interface {
	// Format returns the short format name stored in chunk metadata (txt, md, pdf).
	Format() string

	// Extensions returns the lower-case file extensions handled, with leading dot.
	Extensions() []string

	// Decode returns the extracted text.
	Decode(ctx context.Context, data []byte) (string, error)
}

// DecoderRegistry selects a decoder for a file path by its extension.
type DecoderRegistry interface {
	// ForPath returns the decoder for path, or ErrUnsupportedFormat.
	ForPath(path string) (Decoder, error)

	// Formats lists the supported extensions.
	Formats() []string
}
