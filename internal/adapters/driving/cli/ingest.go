package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragindex/internal/connectors/filesystem"
	"github.com/custodia-labs/ragindex/internal/core/domain"
)

var (
	ingestProject  string
	ingestUploader string
	ingestName     string
	ingestMeta     []string
)

var ingestCmd = engineCmd(&cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest files into the index",
	Long: `Decodes each file by extension, splits it into chunks and indexes them.

Supported formats: .txt, .md, .html, .docx, .pdf (needs pdftotext).
Directories are scanned recursively for supported files, skipping hidden
entries. Pass "-" to read plain text from stdin; --name then sets the filename.`,
	Example: `  ragindex ingest notes.md report.pdf --project research
  ragindex ingest ./docs
  cat log.txt | ragindex ingest - --name log.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
})

func init() {
	ingestCmd.Flags().StringVarP(&ingestProject, "project", "p", "", "project ID or name")
	ingestCmd.Flags().StringVarP(&ingestUploader, "uploader", "u", "", "uploader name (default $USER)")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "filename for stdin input")
	ingestCmd.Flags().StringArrayVarP(&ingestMeta, "meta", "m", nil, "extra metadata as key=value (stdin only)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if importService == nil || documentService == nil {
		return errNoImport
	}
	ctx := cmd.Context()

	projectID, err := projectIDFlag(ctx, ingestProject)
	if err != nil {
		return err
	}
	uploader := ingestUploader
	if uploader == "" {
		uploader = defaultUploader()
	}

	var total, failed int
	report := func(path string, doc *domain.Document, err error) {
		total++
		if err != nil {
			failed++
			cmd.PrintErrf("%s: %v\n", path, err)
			return
		}
		cmd.Printf("Ingested %s as %s (%d chunks)\n", doc.Filename, doc.ID, len(doc.ChunkIDs))
	}

	for _, arg := range args {
		if arg == "-" {
			doc, err := ingestStdin(cmd, uploader, projectID)
			report(arg, doc, err)
			continue
		}
		paths, err := filesystem.Scan(ctx, arg, importService.Supports)
		if err != nil {
			report(arg, nil, err)
			continue
		}
		for _, path := range paths {
			doc, err := importService.ImportFile(ctx, path, uploader, projectID)
			report(path, doc, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, total)
	}
	return nil
}

func ingestStdin(cmd *cobra.Command, uploader string, projectID int) (*domain.Document, error) {
	if ingestName == "" {
		return nil, fmt.Errorf("%w: --name is required when reading stdin", domain.ErrInvalidInput)
	}
	meta, err := parseMeta(ingestMeta)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return documentService.Ingest(cmd.Context(), domain.IngestRequest{
		Text:       string(data),
		Filename:   ingestName,
		Format:     "txt",
		UploadedBy: uploader,
		ProjectID:  projectID,
		Metadata:   meta,
	})
}

// parseMeta turns key=value pairs into metadata with string values.
func parseMeta(pairs []string) (domain.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(domain.Metadata, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: metadata %q is not key=value", domain.ErrInvalidInput, p)
		}
		meta[strings.TrimSpace(k)] = v
	}
	return meta, nil
}
