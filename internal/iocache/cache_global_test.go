package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/diffcover/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(CloseStores)
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		resetManager(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		historyPath := filepath.Join(dir, "history.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, historyPath))
		assert.NotNil(t, Manager.GetCoverageStore())
		assert.NotNil(t, Manager.GetHistoryStore())

		// Repeated calls are no-ops
		require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, historyPath))

		CloseStores()
		CloseStores()

		_, err := os.Stat(cachePath)
		assert.NoError(t, err, "cache database file should be created")
		_, err = os.Stat(historyPath)
		assert.NoError(t, err, "history database file should be created")
	})

	t.Run("history disabled", func(t *testing.T) {
		resetManager(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", "", ""))
		assert.NotNil(t, Manager.GetCoverageStore())
		assert.Nil(t, Manager.GetHistoryStore())
	})

	t.Run("bad cache backend", func(t *testing.T) {
		resetManager(t)
		err := InitStores("oracle", "", "", "")
		assert.ErrorContains(t, err, "failed to initialize coverage caching")
	})

	t.Run("bad history backend", func(t *testing.T) {
		resetManager(t)
		err := InitStores(schema.NoneBackend, "", "oracle", "")
		assert.ErrorContains(t, err, "failed to initialize history store")
		assert.Nil(t, Manager.GetCoverageStore())
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetManager(t)
	require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			assert.NotNil(t, Manager.GetCoverageStore())
			assert.NotNil(t, Manager.GetHistoryStore())
		})
	}
	wg.Wait()
}

func TestClearStores(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o600))

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err := os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))

		// Missing file is fine
		assert.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	})

	t.Run("sqlite needs a path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
		assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.ErrorContains(t, ClearCache("oracle", "", ""), "unsupported backend")
	})
}
