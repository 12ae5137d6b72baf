package cmd

import (
	"cmp"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/internal/iocache"
	"github.com/huangsam/diffcover/internal/outwriter"
	"github.com/huangsam/diffcover/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromConfig reads and validates the history backend settings.
// An empty backend means history tracking is disabled.
func historyBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("history-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup(openStore bool) error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}

	if openStore {
		// No decode cache for history commands
		if err := iocache.InitStores("", "", backend, connStr); err != nil {
			return fmt.Errorf("failed to initialize history: %w", err)
		}
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Output = schema.OutputMode(strings.ToLower(viper.GetString("output")))
	cfg.Precision = viper.GetInt("precision")
	return nil
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by report commands. This avoids Git repo validation
// and coverage file checks for simple history operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage diff coverage run history and exports",
	Long: `Manage the history of diff coverage runs used for trend tracking and reporting.

When --history-backend is set, every report and check run stores:
- Run metadata (timestamp, compare branch, configuration, duration)
- Totals (trackable and covered changed lines, percentage)
- Per-file results including the uncovered line ranges

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show history statistics
  list    - Show the most recent runs
  export  - Export data to Parquet for analytics
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Record runs in the default SQLite file
  diffcover report coverage.xml --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  diffcover history export --history-backend sqlite --output-file diffcover`,
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show detailed information about the stored run history.

Displays:
- Backend type and connection status
- Total number of runs and file results stored
- Coverage of the most recent run
- Last and oldest run timestamps
- Database table sizes

Examples:
  diffcover history status --history-backend sqlite`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup(true)
	},
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetHistoryStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyListCmd lists the most recent runs.
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent diff coverage runs",
	Long: `List recent runs, newest first, with their compare branch and coverage.

Supports --output text, csv and json.

Examples:
  # Last 5 runs (default)
  diffcover history list --history-backend sqlite

  # Last 20 runs as JSON
  diffcover history list --history-backend sqlite --limit 20 --output json`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup(true)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			contract.LogFatal("Invalid --limit", err)
		}
		if limit <= 0 || limit > contract.MaxResultLimit {
			contract.LogFatal("Invalid --limit", fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", contract.MaxResultLimit, limit))
		}
		runs, err := iocache.Manager.GetHistoryStore().GetRecentRuns(limit)
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		if err := outwriter.WriteRunHistory(os.Stdout, runs, cfg); err != nil {
			contract.LogFatal("Failed to print runs", err)
		}
	},
}

// historyExportCmd exports history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and file results to Parquet files.

Exports two datasets:
- <output-file>.runs.parquet - one row per run
- <output-file>.file_results.parquet - one row per file per run

Requires: --output-file parameter

Examples:
  # Export all data
  diffcover history export --history-backend sqlite --output-file diffcover

  # Use with DuckDB for analysis
  duckdb -c "SELECT compare_branch, avg(percent_covered) FROM read_parquet('diffcover.runs.parquet') GROUP BY 1"`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup(true)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(os.Stdout, iocache.Manager.GetHistoryStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored run history",
	Long: `Delete all stored runs and per-file results.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  diffcover history export --history-backend sqlite --output-file backup
  diffcover history clear --history-backend sqlite`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup(false)
	},
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cmp.Or(cfg.HistoryDBConnect, contract.GetHistoryDBFilePath())
		if err := iocache.ClearHistory(cfg.HistoryBackend, dbFilePath, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

The history store migrates itself to the latest version when it opens. Use this
command to inspect the result of an upgrade ahead of time or to roll back.

Examples:
  # Migrate to latest version (default)
  diffcover history migrate --history-backend sqlite

  # Migrate to specific version
  diffcover history migrate --history-backend sqlite --target-version 2

  # Rollback to initial state
  diffcover history migrate --history-backend sqlite --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup(false)
	},
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
