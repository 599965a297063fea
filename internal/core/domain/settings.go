package domain

import (
	"fmt"
	"strings"
)

const unknownDescription = "Unknown"

// Default engine settings.
const (
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 200
	DefaultChunkStrategy   = "chunker"
	DefaultSearchLimit     = 5
	DefaultCollection      = "documents"
	DefaultEmbedBatchSize  = 64
	DefaultEmbedDimensions = 384
	DefaultQdrantHost      = "localhost"
	DefaultQdrantPort      = 6334
)

// EmbeddingProvider identifies the service that turns text into vectors.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderHashing is the built-in offline feature-hashing model.
	EmbeddingProviderHashing EmbeddingProvider = "hashing"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI API or a compatible endpoint.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderHashing, EmbeddingProviderOllama, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// IsLocal returns true if no network service is involved.
func (p EmbeddingProvider) IsLocal() bool {
	return p == EmbeddingProviderHashing
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderHashing:
		return "Feature hashing (built-in, offline)"
	case EmbeddingProviderOllama:
		return "Ollama (local server)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend identifies the vector index implementation.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendMemory keeps vectors in process memory only.
	IndexBackendMemory IndexBackend = "memory"

	// IndexBackendSQLite persists vectors in a local SQLite file.
	IndexBackendSQLite IndexBackend = "sqlite"

	// IndexBackendQdrant stores vectors in a Qdrant collection over gRPC.
	IndexBackendQdrant IndexBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendMemory, IndexBackendSQLite, IndexBackendQdrant:
		return true
	default:
		return false
	}
}

// IsPersistent returns true if the backend survives a restart.
func (b IndexBackend) IsPersistent() bool {
	return b == IndexBackendSQLite || b == IndexBackendQdrant
}

// StorageSettings locates persisted state.
type StorageSettings struct {
	// DataDir holds index.db and projects.json. Defaults to ~/.ragindex/data.
	DataDir string `toml:"data_dir"`

	// ProjectsFile overrides the project registry path.
	ProjectsFile string `toml:"projects_file,omitempty"`
}

// QdrantSettings configures the remote index backend.
type QdrantSettings struct {
	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	APIKey string `toml:"api_key,omitempty"`
}

// IndexSettings configures the vector index.
type IndexSettings struct {
	// Backend selects the implementation.
	Backend IndexBackend `toml:"backend"`

	// Collection names the index (table name or Qdrant collection).
	Collection string `toml:"collection"`

	// Dimensions fixes the vector size. Zero learns it from the first insert.
	Dimensions int `toml:"dimensions"`

	Qdrant QdrantSettings `toml:"qdrant"`
}

// ChunkingSettings configures the segmenter.
type ChunkingSettings struct {
	// Strategy names the registered segmenter.
	Strategy string `toml:"strategy"`

	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model,omitempty"`

	// BaseURL is the API endpoint (Ollama, OpenAI-compatible).
	BaseURL string `toml:"base_url,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env,omitempty"`

	// Dimensions overrides the model's vector size.
	Dimensions int `toml:"dimensions,omitempty"`

	// BatchSize is the number of texts per EmbedBatch call.
	BatchSize int `toml:"batch_size"`

	// Concurrency bounds parallel EmbedBatch calls per document.
	Concurrency int `toml:"concurrency"`

	// RequestsPerSecond limits remote provider calls. Zero disables limiting.
	RequestsPerSecond float64 `toml:"requests_per_second,omitempty"`
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// DefaultLimit is k when a query does not specify one.
	DefaultLimit int `toml:"default_limit"`
}

// WatchSettings configures the directory watcher.
type WatchSettings struct {
	Dir       string `toml:"dir,omitempty"`
	Uploader  string `toml:"uploader,omitempty"`
	ProjectID int    `toml:"project_id,omitempty"`
}

// Settings is the complete engine configuration.
type Settings struct {
	Storage   StorageSettings   `toml:"storage"`
	Index     IndexSettings     `toml:"index"`
	Chunking  ChunkingSettings  `toml:"chunking"`
	Embedding EmbeddingSettings `toml:"embedding"`
	Search    SearchSettings    `toml:"search"`
	Watch     WatchSettings     `toml:"watch"`
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexSettings{
			Backend:    IndexBackendSQLite,
			Collection: DefaultCollection,
			Qdrant: QdrantSettings{
				Host: DefaultQdrantHost,
				Port: DefaultQdrantPort,
			},
		},
		Chunking: ChunkingSettings{
			Strategy:  DefaultChunkStrategy,
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Embedding: EmbeddingSettings{
			Provider:    EmbeddingProviderHashing,
			Dimensions:  DefaultEmbedDimensions,
			BatchSize:   DefaultEmbedBatchSize,
			Concurrency: 1,
		},
		Search: SearchSettings{
			DefaultLimit: DefaultSearchLimit,
		},
	}
}

// Validate checks the settings for values the engine cannot run with.
func (s Settings) Validate() error {
	var problems []string
	if !s.Index.Backend.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown index backend %q", s.Index.Backend))
	}
	if s.Index.Collection == "" {
		problems = append(problems, "index collection is empty")
	}
	if s.Index.Dimensions < 0 {
		problems = append(problems, "index dimensions must not be negative")
	}
	if s.Chunking.ChunkSize <= 0 {
		problems = append(problems, "chunk_size must be positive")
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.ChunkSize {
		problems = append(problems, "chunking.overlap must be in [0, chunking.chunk_size); lower chunking.overlap first or set both together")
	}
	if !s.Embedding.Provider.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown embedding provider %q", s.Embedding.Provider))
	}
	if s.Embedding.BatchSize <= 0 {
		problems = append(problems, "embedding batch_size must be positive")
	}
	if s.Embedding.Concurrency <= 0 {
		problems = append(problems, "embedding concurrency must be positive")
	}
	if s.Search.DefaultLimit <= 0 {
		problems = append(problems, "search default_limit must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}
