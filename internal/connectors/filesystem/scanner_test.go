package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
	}
}

func textOnly(path string) bool {
	return strings.HasSuffix(path, ".txt") || strings.HasSuffix(path, ".md")
}

func TestScan(t *testing.T) {
	t.Run("finds files recursively", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "b.txt", "a.md", "sub/c.txt", "sub/deeper/d.md")

		files, err := Scan(context.Background(), root, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{
			filepath.Join(root, "a.md"),
			filepath.Join(root, "b.txt"),
			filepath.Join(root, "sub", "c.txt"),
			filepath.Join(root, "sub", "deeper", "d.md"),
		}, files)
	})

	t.Run("skips hidden files and directories", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "visible.txt", ".hidden.txt", ".git/config.txt", "sub/.secret.md")

		files, err := Scan(context.Background(), root, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{filepath.Join(root, "visible.txt")}, files)
	})

	t.Run("applies keep filter", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "notes.txt", "image.png", "doc.md")

		files, err := Scan(context.Background(), root, textOnly)
		require.NoError(t, err)

		assert.Equal(t, []string{filepath.Join(root, "doc.md"), filepath.Join(root, "notes.txt")}, files)
	})

	t.Run("single file is returned as is", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "image.png")
		path := filepath.Join(root, "image.png")

		files, err := Scan(context.Background(), "file://"+path, textOnly)
		require.NoError(t, err)

		assert.Equal(t, []string{path}, files)
	})

	t.Run("handles non-existent directory", func(t *testing.T) {
		_, err := Scan(context.Background(), "/non/existent/path", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("handles cancelled context", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "a.txt")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Scan(ctx, root, nil)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
