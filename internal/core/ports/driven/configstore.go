package driven

import "github.com/custodia-labs/ragindex/internal/core/domain"

// ConfigStore provides access to engine configuration.
// Implementations handle persistence (e.g., TOML files) and defaulting.
type ConfigStore interface {
	// Load reads settings from storage, applying defaults for missing values.
	// A missing file yields DefaultSettings.
	Load() (domain.Settings, error)

	// Save validates and persists settings.
	Save(settings domain.Settings) error

	// Set updates dotted keys (e.g. "index.backend") given as alternating
	// key, value arguments. All keys are applied before the result is
	// validated and persisted.
	Set(keyValues ...string) error

	// Path returns the configuration file path.
	Path() string
}
