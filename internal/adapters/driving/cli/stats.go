package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = engineCmd(&cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
})

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	stats, err := documentService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Println("Index Statistics")
	cmd.Println("================")
	cmd.Printf("  Documents:  %d\n", stats.TotalDocuments)
	cmd.Printf("  Chunks:     %d\n", stats.TotalChunks)
	cmd.Printf("  Collection: %s\n", stats.Collection)
	cmd.Printf("  Backend:    %s\n", stats.IndexBackend)
	cmd.Printf("  Embedding:  %s\n", stats.EmbeddingModel)
	return nil
}
