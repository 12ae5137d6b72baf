package cmd

import (
	"cmp"
	"fmt"
	"os"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/internal/iocache"
	"github.com/huangsam/diffcover/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// The store is only opened when openStore is set; clearing works on a closed database.
func cacheSetup(openStore bool) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	if openStore {
		// No history tracking for cache commands
		if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
			return fmt.Errorf("failed to initialize cache: %w", err)
		}
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by report commands. This avoids Git repo validation
// and coverage file checks for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the decoded coverage cache (improves performance)",
	Long: `Manage the cache of decoded coverage reports.

Diffcover keys each decoded coverage report by a hash of its content and format, so
large reports that did not change between runs are not parsed again.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  diffcover cache status

  # Clear the cache
  diffcover cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached coverage data",
	Long: `Delete all decoded coverage reports from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  diffcover cache clear

  # Clear MySQL cache (set connection string via env variable)
  DIFFCOVER_CACHE_BACKEND=mysql DIFFCOVER_CACHE_DB_CONNECT="..." diffcover cache clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheSetup(false)
	},
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cmp.Or(cfg.CacheDBConnect, contract.GetCacheDBFilePath())
		if err := iocache.ClearCache(cfg.CacheBackend, dbFilePath, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the decoded coverage cache.

Displays:
- Backend type and connection status
- Total number of cached reports
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  diffcover cache status`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheSetup(true)
	},
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetCoverageStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
