package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragindex/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/ragindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/services"
	"github.com/custodia-labs/ragindex/internal/normalisers"
	"github.com/custodia-labs/ragindex/internal/postprocessors/chunker"
)

// setupTestServices injects real services over in-memory adapters and
// returns a cleanup that removes them again.
func setupTestServices(t *testing.T) func() {
	t.Helper()

	seg, err := chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(10))
	require.NoError(t, err)

	index := memory.NewVectorIndex("test", 0)
	embedder := hashing.NewEmbeddingService(hashing.Config{Dimensions: 128})
	projects := services.NewProjectService(memory.NewProjectStore())
	documents := services.NewDocumentService(index, embedder, seg, projects, services.DocumentConfig{})

	documentService = documents
	projectService = projects
	searchService = services.NewSearchService(index, embedder, 5)
	importService = services.NewImportService(normalisers.Default(), documents)
	settings = domain.DefaultSettings()

	return func() {
		documentService = nil
		projectService = nil
		searchService = nil
		importService = nil
		settings = domain.Settings{}
	}
}

// runCmd executes the root command with args and returns what it printed
// to stdout. Flags and contexts are reset afterwards so tests do not leak
// into each other.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runStdin(t, "", args...)
}

// resetCommands restores flag defaults and drops the context cobra stored on
// each command, so the next ExecuteContext hands its own context down.
func resetCommands(cmd *cobra.Command) {
	cmd.SetContext(nil) //nolint:staticcheck // nil makes cobra inherit the root context again
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace([]string{})
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetCommands(c)
	}
}

// ingestText adds a document through the injected document service.
func ingestText(t *testing.T, filename, text string, projectID int) *domain.Document {
	t.Helper()
	doc, err := documentService.Ingest(context.Background(), domain.IngestRequest{
		Text:       text,
		Filename:   filename,
		UploadedBy: "tester",
		ProjectID:  projectID,
	})
	require.NoError(t, err)
	return doc
}

// runStdin is runCmd with stdin set to input.
func runStdin(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetIn(bytes.NewBufferString(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		closeEngine()
		resetCommands(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func containsString(s, substr string) bool {
	return strings.Contains(s, substr)
}
