//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "league.db"))
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "league.db")

	first := NewSQLiteStore(path)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.SaveRun(ctx, sampleRun("run-1", "2026-01-01T00:00:00Z")))
	require.NoError(t, first.Close())

	second, err := NewStore("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, second.Init(ctx))
	t.Cleanup(func() {
		_ = CloseIfSupported(second)
	})
	_, ok, err := second.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sqlite", DefaultStoreKind)
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "league.db"))
	_, err := store.ListRuns(context.Background())
	assert.Error(t, err)
}
