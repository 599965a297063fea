package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage indexed documents",
	Long:    `List, view, delete, or clear indexed documents.`,
}

var documentListCmd = engineCmd(&cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
})

var documentGetCmd = engineCmd(&cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
})

var documentDeleteCmd = engineCmd(&cobra.Command{
	Use:     "delete [doc-id...]",
	Aliases: []string{"rm"},
	Short:   "Delete documents and their chunks",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runDocumentDelete,
})

var documentClearCmd = engineCmd(&cobra.Command{
	Use:   "clear",
	Short: "Remove every chunk from the index",
	Long: `Removes every chunk from the index. Project document counters are kept
unless --reconcile is given, which recomputes them from the (now empty) index.`,
	Args: cobra.NoArgs,
	RunE: runDocumentClear,
})

var documentDumpCmd = engineCmd(&cobra.Command{
	Use:   "dump",
	Short: "Print the full index contents as JSON",
	Args:  cobra.NoArgs,
	RunE:  runDocumentDump,
})

var (
	documentProject   string
	documentJSON      bool
	documentYes       bool
	documentReconcile bool
)

// stdinIsTerminal reports whether confirmation prompts can be shown.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func init() {
	documentListCmd.Flags().StringVarP(&documentProject, "project", "p", "", "only documents of this project (ID or name)")
	documentListCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	documentGetCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	documentClearCmd.Flags().BoolVarP(&documentYes, "yes", "y", false, "do not ask for confirmation")
	documentClearCmd.Flags().BoolVar(&documentReconcile, "reconcile", false, "recompute project document counters afterwards")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentClearCmd)
	documentCmd.AddCommand(documentDumpCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocuments
	}
	ctx := cmd.Context()

	projectID, err := projectIDFlag(ctx, documentProject)
	if err != nil {
		return err
	}

	docs, err := documentService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if documentProject != "" {
		filtered := docs[:0]
		for _, d := range docs {
			if d.ProjectID == projectID {
				filtered = append(filtered, d)
			}
		}
		docs = filtered
	}

	if documentJSON {
		return printJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Filename: %s (%s, %d bytes)\n", docs[i].Filename, docs[i].Format, docs[i].SizeBytes)
		cmd.Printf("    Chunks:   %d\n", docs[i].Chunks)
		if docs[i].ProjectID != domain.UnassignedProjectID {
			cmd.Printf("    Project:  %d\n", docs[i].ProjectID)
		}
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if documentJSON {
		return printJSON(cmd, doc)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Filename: %s\n", doc.Filename)
	cmd.Printf("  Format:   %s\n", doc.Format)
	cmd.Printf("  Size:     %d bytes\n", doc.SizeBytes)
	cmd.Printf("  Uploader: %s\n", doc.UploadedBy)
	if doc.ProjectID != domain.UnassignedProjectID {
		cmd.Printf("  Project:  %d\n", doc.ProjectID)
	}
	if !doc.IngestedAt.IsZero() {
		cmd.Printf("  Ingested: %s\n", doc.IngestedAt.Format("2006-01-02 15:04:05"))
	}
	cmd.Printf("  Chunks:   %d\n", len(doc.ChunkIDs))
	for _, id := range doc.ChunkIDs {
		cmd.Printf("    %s\n", id)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	var missing []string
	for _, id := range args {
		deleted, err := documentService.Delete(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to delete document %s: %w", id, err)
		}
		if !deleted {
			missing = append(missing, id)
			continue
		}
		cmd.Printf("Document %s deleted.\n", id)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, strings.Join(missing, ", "))
	}
	return nil
}

func runDocumentClear(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocuments
	}
	ctx := cmd.Context()

	if !documentYes {
		stats, err := documentService.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to read stats: %w", err)
		}
		ok, err := confirm(cmd, fmt.Sprintf("Remove %d chunks from %d documents?", stats.TotalChunks, stats.TotalDocuments))
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := documentService.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	cmd.Println("Index cleared.")

	if documentReconcile {
		return reconcile(cmd)
	}
	return nil
}

func runDocumentDump(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocuments
	}
	dump, err := documentService.Dump(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to dump index: %w", err)
	}
	return printJSON(cmd, dump)
}

// reconcile recomputes project counters from the index and prints them.
func reconcile(cmd *cobra.Command) error {
	counts, err := documentService.ReconcileProjectCounts(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to reconcile project counts: %w", err)
	}

	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	cmd.Printf("Reconciled %d projects.\n", len(ids))
	for _, id := range ids {
		cmd.Printf("  %d: %d documents\n", id, counts[id])
	}
	return nil
}

// confirm asks a yes/no question on an interactive terminal.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if !stdinIsTerminal() {
		return false, fmt.Errorf("%w: refusing to continue without --yes in a non-interactive session", domain.ErrInvalidInput)
	}
	cmd.Printf("%s [y/N]: ", question)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
