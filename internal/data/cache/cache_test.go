package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "zodlint/internal/core/errors"
)

func openTemp(t *testing.T) (*ResultCache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, path
}

func TestResultCache_GetPut(t *testing.T) {
	c, _ := openTemp(t)

	_, ok, err := c.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("k1", []byte(`[{"rule":"no-any"}]`)))
	got, ok, err := c.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"rule":"no-any"}]`, string(got))

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResultCache_EmptyValueIsAHit(t *testing.T) {
	c, _ := openTemp(t)
	require.NoError(t, c.Put("k", []byte("null")))
	got, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "null", string(got))
}

func TestResultCache_Persists(t *testing.T) {
	c, path := openTemp(t)
	require.NoError(t, c.Put("k", []byte("v")))
	require.NoError(t, c.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, ok, err := reopened.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(got))
}

func TestResultCache_Prune(t *testing.T) {
	c, _ := openTemp(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c.now = func() time.Time { return base }
	require.NoError(t, c.Put("old", []byte("1")))
	c.now = func() time.Time { return base.Add(48 * time.Hour) }
	require.NoError(t, c.Put("new", []byte("2")))

	removed, err := c.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, _ := c.Get("old")
	assert.False(t, ok)
	_, ok, _ = c.Get("new")
	assert.True(t, ok)
}

func TestResultCache_Clear(t *testing.T) {
	c, _ := openTemp(t)
	require.NoError(t, c.Put("a", []byte("1")))
	require.NoError(t, c.Put("b", []byte("2")))
	require.NoError(t, c.Clear())

	n, err := c.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_Locked(t *testing.T) {
	_, path := openTemp(t)
	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeConflict))
}
