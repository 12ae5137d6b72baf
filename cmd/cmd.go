// Package cmd defines the command-line interface for diffcover.
package cmd

import (
	"strings"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("repo", ".", "Path inside the git repository to report on")
	rootCmd.PersistentFlags().String("compare-branch", schema.DefaultCompareBranch, "Branch to diff against (diff is <branch>...HEAD)")
	rootCmd.PersistentFlags().Bool("ignore-staged", false, "Ignore staged changes")
	rootCmd.PersistentFlags().Bool("ignore-unstaged", false, "Ignore unstaged changes")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated changed paths to ignore: globs (*_test.go), prefixes ending in / (vendor/), suffixes starting with . (.min.js); any other word matches paths containing it")
	rootCmd.PersistentFlags().String("src-roots", strings.Join(schema.DefaultSrcRoots, ","), "Comma-separated source roots tried when a coverage path does not match the diff")
	rootCmd.PersistentFlags().String("format", string(schema.AutoFormat), "Coverage format: auto or cobertura or jacoco or gocover or coveragepy or gcovr")
	rootCmd.PersistentFlags().String("go-module", "", "Module path stripped from Go coverprofile entries (default: read go.mod)")
	rootCmd.PersistentFlags().Float64("fail-under", 0, "Exit with status 1 when diff coverage is below this percentage")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or markdown or html or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("html-report", "", "Also write an HTML report to this path")
	rootCmd.PersistentFlags().String("external-css-file", "", "Write the HTML report styles to this file and link to it")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for percentages")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent coverage decoders")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Decode cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of checkCmd to Viper
	checkCmd.Flags().IntP("limit", "l", contract.DefaultResultLimit, "Number of violating files to list")
	if err := viper.BindPFlags(checkCmd.Flags()); err != nil {
		contract.LogFatal("Error binding check flags", err)
	}

	// Read directly in historyListCmd since viper already binds "limit" to checkCmd
	historyListCmd.Flags().IntP("limit", "l", contract.DefaultResultLimit, "Number of runs to list")

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
