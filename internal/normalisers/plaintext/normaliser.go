// Package plaintext decodes plain text files.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.Decoder = (*Decoder)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoder handles plain text files.
type Decoder struct{}

// New creates a new plain text decoder.
func New() *Decoder {
	return &Decoder{}
}

// Format returns the format name.
func (d *Decoder) Format() string {
	return "txt"
}

// Extensions returns the handled file extensions.
func (d *Decoder) Extensions() []string {
	return []string{".txt", ".text", ".log", ".csv"}
}

// Decode returns the text. Input that is not valid UTF-8 is read as
// Windows-1252, falling back to ISO-8859-1 when that leaves undefined bytes.
func (d *Decoder) Decode(_ context.Context, data []byte) (string, error) {
	return DecodeText(data)
}

// DecodeText converts raw bytes to a UTF-8 string.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err == nil && !strings.ContainsRune(string(out), utf8.RuneError) {
		return string(out), nil
	}

	out, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: undecodable text: %w", domain.ErrInvalidInput, err)
	}
	return string(out), nil
}
