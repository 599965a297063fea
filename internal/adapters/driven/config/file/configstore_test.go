package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, FileName), store.Path())
}

func TestConfigStore_LoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	settings, err := store.Load()
	require.NoError(t, err)

	want := domain.DefaultSettings()
	want.Storage.DataDir = filepath.Join(tmpDir, "data")
	assert.Equal(t, want, settings)
}

func TestConfigStore_PartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	content := `
[chunking]
chunk_size = 500
overlap = 50

[index]
backend = "memory"
`
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 500, settings.Chunking.ChunkSize)
	assert.Equal(t, 50, settings.Chunking.Overlap)
	assert.Equal(t, domain.IndexBackendMemory, settings.Index.Backend)
	assert.Equal(t, domain.DefaultCollection, settings.Index.Collection)
	assert.Equal(t, domain.DefaultSearchLimit, settings.Search.DefaultLimit)
}

func TestConfigStore_LoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "[chunking\n"},
		{"overlap too large", "[chunking]\nchunk_size = 10\noverlap = 10\n"},
		{"unknown backend", "[index]\nbackend = \"faiss\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewConfigStore(t.TempDir())
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.content), 0600))

			_, err = store.Load()
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestConfigStore_SaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	settings.Storage.DataDir = "/srv/ragindex"
	settings.Embedding.Provider = domain.EmbeddingProviderOllama
	settings.Embedding.Model = "nomic-embed-text"
	require.NoError(t, store.Save(settings))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)

	settings.Chunking.ChunkSize = 0
	assert.True(t, errors.Is(store.Save(settings), domain.ErrInvalidInput))
}

func TestConfigStore_Set(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("index.backend", "qdrant"))
	require.NoError(t, store.Set("index.qdrant.port", "6335"))
	require.NoError(t, store.Set("embedding.requests_per_second", "2.5"))
	require.NoError(t, store.Set("chunking.chunk_size", "1200"))

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.IndexBackendQdrant, settings.Index.Backend)
	assert.Equal(t, 6335, settings.Index.Qdrant.Port)
	assert.InDelta(t, 2.5, settings.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, 1200, settings.Chunking.ChunkSize)
}

func TestConfigStore_SetErrors(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	for _, tc := range []struct{ key, value string }{
		{"nope", "1"},
		{"index", "x"},
		{"index.backend.extra", "x"},
		{"chunking.chunk_size", "big"},
		{"chunking.overlap", "5000"},
		{"index.backend", "faiss"},
	} {
		err := store.Set(tc.key, tc.value)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "%s=%s: %v", tc.key, tc.value, err)
	}

	for _, args := range [][]string{nil, {"index.backend"}, {"index.backend", "memory", "search.default_limit"}} {
		assert.True(t, errors.Is(store.Set(args...), domain.ErrInvalidInput), "%v", args)
	}

	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err), "invalid sets must not write the file")
}

func TestConfigStore_SetSeveralKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	// Shrinking chunk_size below the default overlap alone is rejected.
	err = store.Set("chunking.chunk_size", "200")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "chunking.overlap")

	require.NoError(t, store.Set("chunking.chunk_size", "200", "chunking.overlap", "20"))
	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 200, settings.Chunking.ChunkSize)
	assert.Equal(t, 20, settings.Chunking.Overlap)

	// A bad pair rejects the whole call.
	err = store.Set("chunking.chunk_size", "300", "index.backend", "faiss")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	settings, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, 200, settings.Chunking.ChunkSize)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "storage.data_dir")
	assert.Contains(t, keys, "index.qdrant.host")
	assert.Contains(t, keys, "embedding.api_key_env")
	assert.Contains(t, keys, "watch.project_id")
	assert.NotContains(t, keys, "index.qdrant")
}

func TestValues(t *testing.T) {
	values, err := Values(domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", values["index.backend"])
	assert.EqualValues(t, domain.DefaultChunkSize, values["chunking.chunk_size"])
}

func TestFlattenMap(t *testing.T) {
	in := map[string]any{
		"a": map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
		"e": true,
	}
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "e": true}, flattenMap(in, ""))
}
