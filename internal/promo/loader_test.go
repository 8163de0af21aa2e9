package promo

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createPromoFile writes a gzipped code list into a temp dir.
func createPromoFile(t *testing.T, name string, codes []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, WriteFile(path, codes))
	return path
}

func gzipped(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestFileLoader_Load(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		codes := []string{"KEEBS2026", "THOCKY123", "CLACKY456"}
		path := createPromoFile(t, "promo.gz", codes)

		set, err := loader.Load(ctx, path)

		require.NoError(t, err)
		assert.Equal(t, 3, set.Size())
		for _, c := range codes {
			assert.True(t, set.Contains(c), "expected %s in set", c)
		}
	})

	t.Run("Blank lines and whitespace", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "messy.gz")
		require.NoError(t, os.WriteFile(path, gzipped(t, "  KEEBS2026  \n\n\t\nTHOCKY123\r\n"), 0o644))

		set, err := loader.Load(ctx, path)

		require.NoError(t, err)
		assert.Equal(t, 2, set.Size())
		assert.True(t, set.Contains("KEEBS2026"))
		assert.True(t, set.Contains("THOCKY123"))
	})

	t.Run("Empty file", func(t *testing.T) {
		path := createPromoFile(t, "empty.gz", nil)

		set, err := loader.Load(ctx, path)

		require.NoError(t, err)
		assert.Zero(t, set.Size())
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := loader.Load(ctx, filepath.Join(t.TempDir(), "nope.gz"))

		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Not gzipped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plain.gz")
		require.NoError(t, os.WriteFile(path, []byte("KEEBS2026\n"), 0o644))

		_, err := loader.Load(ctx, path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "gzip")
	})

	t.Run("Cancelled context", func(t *testing.T) {
		path := createPromoFile(t, "promo.gz", []string{"KEEBS2026"})
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := loader.Load(cctx, path)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWriteSamples(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "promos")

	paths, err := WriteSamples(dir)

	require.NoError(t, err)
	require.Len(t, paths, 3)
	loader := NewFileLoader(zerolog.Nop())
	for i, p := range paths {
		set, err := loader.Load(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, len(SampleCodes[i]), set.Size())
	}
}
