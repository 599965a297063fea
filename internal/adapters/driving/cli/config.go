package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragindex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragindex/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change the TOML configuration.

Keys are dotted paths such as index.backend or embedding.provider.
Run "ragindex config keys" for the full list.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value] [key value]...",
	Short: "Set one or more configuration values",
	Long: `Set configuration values. Several key value pairs may be given; they are
applied together and validated as a whole, e.g.

  ragindex config set chunking.chunk_size 200 chunking.overlap 20`,
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return fmt.Errorf("%w: expected key value pairs, got %d arguments", domain.ErrInvalidInput, len(args))
		}
		return nil
	},
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range file.Keys() {
			cmd.Println(k)
		}
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := configStore()
		if err != nil {
			return err
		}
		cmd.Println(store.Path())
		return nil
	},
}

var configForce bool

// secretKeys are masked by config show.
var secretKeys = map[string]bool{
	"index.qdrant.api_key": true,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	store, err := configStore()
	if err != nil {
		return err
	}

	_, statErr := os.Stat(store.Path())
	switch {
	case statErr == nil && !configForce:
		return fmt.Errorf("%s already exists (use --force to overwrite)", store.Path())
	case statErr != nil && !errors.Is(statErr, os.ErrNotExist):
		return statErr
	}

	if err := store.Save(domain.DefaultSettings()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	cmd.Printf("Wrote %s\n", store.Path())
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := configStore()
	if err != nil {
		return err
	}
	current, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	values, err := file.Values(current)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmd.Printf("# %s\n", store.Path())
	section := ""
	for _, k := range keys {
		prefix, name := splitKey(k)
		if prefix != section {
			section = prefix
			cmd.Printf("\n[%s]\n", section)
		}
		v := values[k]
		if secretKeys[k] {
			if s, _ := v.(string); s != "" {
				v = maskAPIKey(s)
			}
		}
		cmd.Printf("  %s = %v\n", name, v)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := configStore()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		keys = append(keys, args[i])
	}
	if err := store.Set(args...); err != nil {
		return fmt.Errorf("failed to set %s: %w", strings.Join(keys, ", "), err)
	}
	for _, k := range keys {
		cmd.Printf("%s updated.\n", k)
	}
	return nil
}

// splitKey separates the section from the last key segment.
func splitKey(key string) (section, name string) {
	i := strings.LastIndex(key, ".")
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
