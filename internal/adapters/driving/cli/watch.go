package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragindex/internal/adapters/driving/watch"
)

var (
	watchProject  string
	watchUploader string
	watchExisting bool
	watchDebounce time.Duration
)

var watchCmd = engineCmd(&cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files as they appear in a directory",
	Long: `Watches a directory and ingests every supported file that is created or
written there. Hidden files and subdirectories are ignored. The directory,
uploader and project default to the [watch] section of the config.

Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
})

func init() {
	watchCmd.Flags().StringVarP(&watchProject, "project", "p", "", "project ID or name (default watch.project_id)")
	watchCmd.Flags().StringVarP(&watchUploader, "uploader", "u", "", "uploader name (default watch.uploader or $USER)")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also ingest files already in the directory")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if importService == nil {
		return errNoImport
	}
	ctx := cmd.Context()

	dir := settings.Watch.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no directory given and watch.dir is not set")
	}

	projectID := settings.Watch.ProjectID
	if watchProject != "" {
		id, err := projectIDFlag(ctx, watchProject)
		if err != nil {
			return err
		}
		projectID = id
	}

	uploader := watchUploader
	if uploader == "" {
		uploader = settings.Watch.Uploader
	}
	if uploader == "" {
		uploader = defaultUploader()
	}

	w, err := watch.New(importService, watch.Config{
		Dir:            dir,
		UploadedBy:     uploader,
		ProjectID:      projectID,
		Debounce:       watchDebounce,
		ImportExisting: watchExisting,
		Report: func(r watch.Result) {
			if r.Err != nil {
				cmd.PrintErrf("%s: %v\n", filepath.Base(r.Path), r.Err)
				return
			}
			cmd.Printf("Ingested %s as %s (%d chunks)\n", r.Document.Filename, r.Document.ID, len(r.Document.ChunkIDs))
		},
	})
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)
	return w.Run(ctx)
}
