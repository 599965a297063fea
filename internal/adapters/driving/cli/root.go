// Package cli implements the ragindex command line.
//
// Commands are package-level cobra commands registered on rootCmd in init.
// The engine is opened lazily by commands that need it and closed when
// Execute returns; tests inject services directly instead.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragindex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragindex/internal/app"
	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driving"
	"github.com/custodia-labs/ragindex/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// needsEngine marks commands that operate on the index.
const needsEngine = "engine"

var (
	configDir string
	verbose   bool
)

// Services used by the commands. Set by openEngine or by tests.
var (
	documentService driving.DocumentService
	projectService  driving.ProjectService
	searchService   driving.SearchService
	importService   driving.ImportService

	settings domain.Settings
	engine   *app.Engine
)

var rootCmd = &cobra.Command{
	Use:   "ragindex",
	Short: "Document ingestion and retrieval engine",
	Long: `ragindex splits documents into overlapping chunks, embeds them and stores
them in a vector index for semantic search. Documents can be grouped into
projects, served to AI assistants over MCP, or picked up from a watched
directory.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.ragindex)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command and closes the engine afterwards.
func Execute(ctx context.Context) error {
	defer closeEngine()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd.Annotations[needsEngine] == "" || documentService != nil {
		return nil
	}
	return openEngine(cmd.Context())
}

func configStore() (*file.ConfigStore, error) {
	return file.NewConfigStore(configDir)
}

func openEngine(ctx context.Context) error {
	store, err := configStore()
	if err != nil {
		return err
	}
	loaded, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := os.MkdirAll(loaded.Storage.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	e, err := app.Open(ctx, loaded)
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}

	engine = e
	settings = loaded
	documentService = e.Documents
	projectService = e.Projects
	searchService = e.Search
	importService = e.Import
	return nil
}

// closeEngine releases an engine opened by setup. Injected services are
// left in place.
func closeEngine() {
	if engine == nil {
		return
	}
	if err := engine.Close(); err != nil {
		logger.Warn("closing engine: %v", err)
	}
	engine = nil
	documentService = nil
	projectService = nil
	searchService = nil
	importService = nil
}

// engineCmd annotates cmd as needing the engine and returns it.
func engineCmd(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[needsEngine] = "true"
	return cmd
}

// resolveProject looks a project up by numeric ID or by name.
func resolveProject(ctx context.Context, ref string) (*domain.Project, error) {
	if projectService == nil {
		return nil, errNoProjects
	}
	if id, err := strconv.Atoi(ref); err == nil {
		return projectService.Get(ctx, id)
	}
	return projectService.GetByName(ctx, ref)
}

// projectIDFlag turns a --project value into a project ID. Empty means none.
func projectIDFlag(ctx context.Context, ref string) (int, error) {
	if ref == "" {
		return domain.UnassignedProjectID, nil
	}
	p, err := resolveProject(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("project %q: %w", ref, err)
	}
	return p.ID, nil
}

// defaultUploader names the local user.
func defaultUploader() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
