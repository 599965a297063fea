package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	commandNames := make([]string, 0)
	for _, cmd := range documentCmd.Commands() {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"list", "get", "delete", "clear", "dump"}, commandNames)
}

func TestDocumentCmds_NeedEngine(t *testing.T) {
	for _, cmd := range documentCmd.Commands() {
		assert.Equal(t, "true", cmd.Annotations[needsEngine], cmd.Name())
	}
	assert.Empty(t, versionCmd.Annotations[needsEngine])
}

func TestDocumentGetCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := runCmd(t, "document", "get")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDocumentListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := runCmd(t, "document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}

func TestDocumentListCmd_ListsDocuments(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	doc := ingestText(t, "alpha.txt", "the quick brown fox", 0)

	out, err := runCmd(t, "document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, doc.ID)
	assert.Contains(t, out, "alpha.txt")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentListCmd_FiltersByProject(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	p, err := projectService.Create(context.Background(), "Alpha", "", "tester")
	require.NoError(t, err)
	inProject := ingestText(t, "in.txt", "assigned text", p.ID)
	ingestText(t, "out.txt", "unassigned text", 0)

	out, err := runCmd(t, "document", "list", "--project", "alpha", "--json")
	require.NoError(t, err)

	var docs []domain.DocumentSummary
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, inProject.ID, docs[0].ID)
	assert.Equal(t, p.ID, docs[0].ProjectID)
}

func TestDocumentListCmd_UnknownProject(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := runCmd(t, "document", "list", "--project", "missing")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDocumentGetCmd_ShowsChunks(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	doc := ingestText(t, "notes.md", "first chunk of text", 0)

	out, err := runCmd(t, "document", "get", doc.ID)

	require.NoError(t, err)
	assert.Contains(t, out, "Document: "+doc.ID)
	assert.Contains(t, out, "notes.md")
	assert.Contains(t, out, domain.ChunkID(doc.ID, 0))
}

func TestDocumentGetCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := runCmd(t, "document", "get", "nope")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDocumentDeleteCmd(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	doc := ingestText(t, "gone.txt", "to be deleted", 0)

	out, err := runCmd(t, "document", "delete", doc.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Document "+doc.ID+" deleted.")

	_, err = runCmd(t, "document", "delete", doc.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDocumentClearCmd_WithYes(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	p, err := projectService.Create(ctx, "Alpha", "", "tester")
	require.NoError(t, err)
	ingestText(t, "a.txt", "alpha text", p.ID)

	out, err := runCmd(t, "document", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Index cleared.")

	stats, err := documentService.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChunks)

	// Counters survive a plain clear.
	got, err := projectService.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.DocumentCount)
}

func TestDocumentClearCmd_Reconcile(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	p, err := projectService.Create(ctx, "Alpha", "", "tester")
	require.NoError(t, err)
	ingestText(t, "a.txt", "alpha text", p.ID)

	out, err := runCmd(t, "document", "clear", "--yes", "--reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "Reconciled")

	got, err := projectService.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.DocumentCount)
}

func TestDocumentClearCmd_RefusesWithoutTerminal(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	orig := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	defer func() { stdinIsTerminal = orig }()

	ingestText(t, "a.txt", "alpha text", 0)

	_, err := runCmd(t, "document", "clear")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	stats, err := documentService.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
}

func TestDocumentClearCmd_Prompt(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		cleared bool
	}{
		{name: "yes", answer: "y\n", cleared: true},
		{name: "full yes", answer: "YES\n", cleared: true},
		{name: "no", answer: "n\n", cleared: false},
		{name: "empty", answer: "\n", cleared: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestServices(t)
			defer cleanup()

			orig := stdinIsTerminal
			stdinIsTerminal = func() bool { return true }
			defer func() { stdinIsTerminal = orig }()

			ingestText(t, "a.txt", "alpha text", 0)

			out := new(bytes.Buffer)
			rootCmd.SetOut(out)
			rootCmd.SetErr(out)
			rootCmd.SetIn(bytes.NewBufferString(tt.answer))
			rootCmd.SetArgs([]string{"document", "clear"})
			defer func() {
				rootCmd.SetArgs(nil)
				rootCmd.SetIn(nil)
				resetCommands(rootCmd)
			}()

			require.NoError(t, rootCmd.Execute())
			assert.Contains(t, out.String(), "[y/N]")

			stats, err := documentService.Stats(context.Background())
			require.NoError(t, err)
			if tt.cleared {
				assert.Equal(t, 0, stats.TotalDocuments)
			} else {
				assert.Equal(t, 1, stats.TotalDocuments)
				assert.Contains(t, out.String(), "Aborted.")
			}
		})
	}
}

func TestDocumentDumpCmd(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	doc := ingestText(t, "a.txt", "alpha text", 0)

	out, err := runCmd(t, "document", "dump")
	require.NoError(t, err)

	var dump domain.Dump
	require.NoError(t, json.Unmarshal([]byte(out), &dump))
	assert.Equal(t, []string{domain.ChunkID(doc.ID, 0)}, dump.IDs)
	assert.Equal(t, []string{"alpha text"}, dump.Documents)
	require.Len(t, dump.Metadatas, 1)
	assert.Equal(t, doc.ID, dump.Metadatas[0].String(domain.MetaDocumentID))
}

func TestDocumentCmds_WithoutServices(t *testing.T) {
	tests := [][]string{
		{"document", "list"},
		{"document", "get", "x"},
		{"document", "delete", "x"},
		{"document", "dump"},
	}
	for _, args := range tests {
		// Executing would open an engine, so call the handlers directly.
		cmd, rest, err := rootCmd.Find(args)
		require.NoError(t, err)
		assert.ErrorIs(t, cmd.RunE(cmd, rest), errNoDocuments, args)
	}
}
