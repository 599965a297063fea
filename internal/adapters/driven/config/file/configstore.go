package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// FileName is the configuration file name inside the config directory.
const FileName = "config.toml"

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
type ConfigStore struct {
	mu        sync.Mutex
	configDir string
	filePath  string
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.ragindex/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".ragindex")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	return &ConfigStore{
		configDir: configDir,
		filePath:  filepath.Join(configDir, FileName),
	}, nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Load reads the file over DefaultSettings. A missing file yields the defaults.
func (s *ConfigStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *ConfigStore) load() (domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return domain.Settings{}, fmt.Errorf("reading %s: %w", s.filePath, err)
	default:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return domain.Settings{}, fmt.Errorf("%w: parsing %s: %w", domain.ErrInvalidInput, s.filePath, err)
		}
	}

	if settings.Storage.DataDir == "" {
		settings.Storage.DataDir = filepath.Join(s.configDir, "data")
	}
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("%s: %w", s.filePath, err)
	}
	return settings, nil
}

// Save validates settings and writes them with restricted permissions.
func (s *ConfigStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(settings)
}

func (s *ConfigStore) save(settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshalling settings: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", s.filePath, err)
	}
	return nil
}

// Set parses each value for its dotted key and persists the result. Keys
// are applied together so that dependent values such as chunk_size and
// overlap can change in one call.
func (s *ConfigStore) Set(keyValues ...string) error {
	if len(keyValues) == 0 || len(keyValues)%2 != 0 {
		return fmt.Errorf("%w: expected key value pairs, got %d arguments", domain.ErrInvalidInput, len(keyValues))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load()
	if err != nil {
		return err
	}
	for i := 0; i < len(keyValues); i += 2 {
		key, value := keyValues[i], keyValues[i+1]
		if err := setField(reflect.ValueOf(&settings).Elem(), strings.Split(key, "."), value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return s.save(settings)
}

// Keys lists every settable dotted key in sorted order.
func Keys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(domain.Settings{}), "", &keys)
	sort.Strings(keys)
	return keys
}

// Values flattens settings into dotted keys, as written to the file.
func Values(settings domain.Settings) (map[string]any, error) {
	data, err := toml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}
	var nested map[string]any
	if err := toml.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("unmarshalling settings: %w", err)
	}
	return flattenMap(nested, ""), nil
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// tomlName returns the key a struct field is stored under.
func tomlName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := tomlName(f)
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, name, keys)
			continue
		}
		*keys = append(*keys, name)
	}
}

func setField(v reflect.Value, path []string, value string) error {
	for i := 0; i < v.NumField(); i++ {
		f := v.Type().Field(i)
		if tomlName(f) != path[0] {
			continue
		}
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			if len(path) == 1 {
				return fmt.Errorf("%w: %q is a section", domain.ErrInvalidInput, path[0])
			}
			return setField(field, path[1:], value)
		}
		if len(path) != 1 {
			return fmt.Errorf("%w: unknown key", domain.ErrInvalidInput)
		}
		return assign(field, value)
	}
	return fmt.Errorf("%w: unknown key", domain.ErrInvalidInput)
}

func assign(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidInput, value)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", domain.ErrInvalidInput, value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidInput, value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%w: unsupported field type %s", domain.ErrInvalidInput, field.Kind())
	}
	return nil
}
