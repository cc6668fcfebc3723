package teamiq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryTokenStore()
	require.Empty(t, store.Get())

	store.Set("tok1")
	require.Equal(t, "tok1", store.Get())

	store.Set("tok2")
	require.Equal(t, "tok2", store.Get(), "Set overwrites")

	store.Clear()
	require.Empty(t, store.Get())
	store.Clear() // idempotent
	require.Empty(t, store.Get())
}

func TestFileTokenStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "auth", "token")
	store := NewFileTokenStore(path)
	require.Empty(t, store.Get(), "missing file reads as no token")

	store.Set("tok1")
	require.Equal(t, "tok1", store.Get())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	store.Clear()
	require.Empty(t, store.Get())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFileTokenStoreTrimsWhitespace(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  tok1\n\n"), 0o600))

	store := NewFileTokenStore(path)
	require.Equal(t, "tok1", store.Get())
}
