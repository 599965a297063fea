// Package pdf provides a Decoder for PDF files backed by poppler's pdftotext.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.Decoder = (*Decoder)(nil)

const toolName = "pdftotext"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes external commands. It exists so tests can stand in
// for pdftotext.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Decoder handles PDF documents.
type Decoder struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates a PDF decoder that shells out to pdftotext.
func New() *Decoder {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a PDF decoder with a custom command runner.
func NewWithRunner(runner CommandRunner) *Decoder {
	return &Decoder{runner: runner, lookPath: exec.LookPath}
}

// Format returns the format name.
func (d *Decoder) Format() string {
	return "pdf"
}

// Extensions returns the handled file extensions.
func (d *Decoder) Extensions() []string {
	return []string{".pdf"}
}

// Decode writes data to a temporary file and runs pdftotext over it.
func (d *Decoder) Decode(ctx context.Context, data []byte) (string, error) {
	if _, err := d.lookPath(toolName); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPDFToolNotFound, err)
	}

	tmp, err := os.CreateTemp("", "ragindex-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	// "-" sends the text to stdout.
	out, err := d.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%w: pdftotext failed: %s", domain.ErrInvalidInput, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%w: pdftotext failed: %w", domain.ErrInvalidInput, err)
	}

	// Form feeds separate pages.
	text := strings.ReplaceAll(string(out), "\f", "\n")
	return strings.TrimSpace(text), nil
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install pdftotext on common platforms.
func InstallInstructions() string {
	return `PDF support requires pdftotext from poppler.

  macOS:          brew install poppler
  Debian/Ubuntu:  sudo apt install poppler-utils
  Fedora:         sudo dnf install poppler-utils`
}
