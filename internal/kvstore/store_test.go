package kvstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avilyaev/script-coach/internal/kvstore"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFileStore(t *testing.T) {
	store := kvstore.NewFileStore(t.TempDir())

	t.Run("round trip", func(t *testing.T) {
		store.Set("greeting", payload{Name: "hello", Count: 2})

		var got payload
		require.True(t, store.Get("greeting", &got))
		assert.Equal(t, payload{Name: "hello", Count: 2}, got)
	})

	t.Run("missing key", func(t *testing.T) {
		var got payload
		assert.False(t, store.Get("nope", &got))
		assert.Equal(t, payload{}, got)
	})

	t.Run("corrupt value is treated as missing", func(t *testing.T) {
		dir := t.TempDir()
		corrupt := kvstore.NewFileStore(dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{oops"), 0o644))

		var got payload
		assert.False(t, corrupt.Get("bad", &got))
	})

	t.Run("delete", func(t *testing.T) {
		store.Set("ephemeral", payload{Name: "x"})
		store.Delete("ephemeral")

		var got payload
		assert.False(t, store.Get("ephemeral", &got))

		// deleting again is a no-op
		store.Delete("ephemeral")
	})

	t.Run("unavailable directory degrades to no-op", func(t *testing.T) {
		broken := kvstore.NewFileStore(filepath.Join(string(os.DevNull), "nope"))
		broken.Set("k", payload{Name: "v"})

		var got payload
		assert.False(t, broken.Get("k", &got))
	})
}

func TestSQLiteStore(t *testing.T) {
	store, err := kvstore.NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer store.Close()

	t.Run("round trip", func(t *testing.T) {
		store.Set("greeting", payload{Name: "hello", Count: 5})

		var got payload
		require.True(t, store.Get("greeting", &got))
		assert.Equal(t, payload{Name: "hello", Count: 5}, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		store.Set("k", payload{Count: 1})
		store.Set("k", payload{Count: 2})

		var got payload
		require.True(t, store.Get("k", &got))
		assert.Equal(t, 2, got.Count)
	})

	t.Run("missing key", func(t *testing.T) {
		var got payload
		assert.False(t, store.Get("nope", &got))
	})

	t.Run("delete", func(t *testing.T) {
		store.Set("gone", payload{Count: 9})
		store.Delete("gone")

		var got payload
		assert.False(t, store.Get("gone", &got))
	})
}
