package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

var (
	searchLimit   int
	searchProject string
	searchJSON    bool
)

var searchCmd = engineCmd(&cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Embeds the query and returns the nearest chunks by cosine distance.
Results carry the chunk text, its metadata and a relevance score (1 - distance).`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
})

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().StringVarP(&searchProject, "project", "p", "", "restrict to a project (ID or name)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNoSearch
	}
	ctx := cmd.Context()

	projectID, err := projectIDFlag(ctx, searchProject)
	if err != nil {
		return err
	}

	results, err := searchService.Search(ctx, args[0], domain.SearchOptions{
		Limit:     searchLimit,
		ProjectID: projectID,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		title := results[i].Metadata.String(domain.MetaFilename)
		if title == "" {
			title = results[i].DocumentID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, results[i].Score)
		cmd.Printf("      Chunk: %s\n", results[i].ChunkID)
		if text := snippet(results[i].Content, 160); text != "" {
			cmd.Printf("      %s\n", text)
		}
		cmd.Println()
	}
	return nil
}

// snippet collapses whitespace and truncates to limit runes.
func snippet(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
