package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tier0/pkg/cache"
)

func TestDir_PutGetRoundTrip(t *testing.T) {
	d, err := cache.NewDir(cache.DirConfig{Path: t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	payload := []byte("index bytes")

	require.NoError(t, d.Put(ctx, "index.gob", payload))

	got, err := d.Get(ctx, "index.gob")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDir_Overwrite(t *testing.T) {
	d, err := cache.NewDir(cache.DirConfig{Path: t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.Put(ctx, "chunks.gob", []byte("old")))
	require.NoError(t, d.Put(ctx, "chunks.gob", []byte("new")))

	got, err := d.Get(ctx, "chunks.gob")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestDir_MissingKeyIsNoCache(t *testing.T) {
	d, err := cache.NewDir(cache.DirConfig{Path: t.TempDir()})
	require.NoError(t, err)

	_, err = d.Get(context.Background(), "absent.gob")
	assert.ErrorIs(t, err, cache.ErrNoCache)
}

func TestDir_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	d, err := cache.NewDir(cache.DirConfig{Path: dir})
	require.NoError(t, err)

	require.NoError(t, d.Put(context.Background(), "index.gob", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "index.gob", filepath.Base(entries[0].Name()))
}

func TestNewDir_RequiresPath(t *testing.T) {
	_, err := cache.NewDir(cache.DirConfig{})
	assert.Error(t, err)
}
