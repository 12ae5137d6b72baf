package contract

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/diffcover/schema"
)

// Default values for configuration.
const (
	DefaultPrecision   = 1
	DefaultResultLimit = 5
	MaxResultLimit     = 1000
)

// DefaultWorkers is the default number of concurrent decode workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a diff coverage run.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath      string
	CoverageFiles []string

	CompareBranch  string
	IgnoreStaged   bool
	IgnoreUnstaged bool
	Excludes       []string
	SrcRoots       []string

	Format   schema.CoverageFormat
	GoModule string // Module path stripped from Go coverprofile entries ("" = read go.mod)
	Workers  int

	FailUnder   float64
	ResultLimit int

	Output          schema.OutputMode
	OutputFile      string
	HTMLReport      string
	ExternalCSSFile string
	Precision       int
	Width           int // Terminal width override (0 = auto-detect)
	UseColors       bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	CoverageFiles []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Repo             string  `mapstructure:"repo"`
	CompareBranch    string  `mapstructure:"compare-branch"`
	IgnoreStaged     bool    `mapstructure:"ignore-staged"`
	IgnoreUnstaged   bool    `mapstructure:"ignore-unstaged"`
	Exclude          string  `mapstructure:"exclude"`
	SrcRoots         string  `mapstructure:"src-roots"`
	Format           string  `mapstructure:"format"`
	GoModule         string  `mapstructure:"go-module"`
	Workers          int     `mapstructure:"workers"`
	FailUnder        float64 `mapstructure:"fail-under"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	HTMLReport       string  `mapstructure:"html-report"`
	ExternalCSSFile  string  `mapstructure:"external-css-file"`
	Precision        int     `mapstructure:"precision"`
	Width            int     `mapstructure:"width"`
	Color            string  `mapstructure:"color"`
	CacheBackend     string  `mapstructure:"cache-backend"`
	CacheDBConnect   string  `mapstructure:"cache-db-connect"`
	HistoryBackend   string  `mapstructure:"history-backend"`
	HistoryDBConnect string  `mapstructure:"history-db-connect"`

	// --- Fields from checkCmd.Flags() ---
	Limit int `mapstructure:"limit"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.CoverageFiles = slices.Clone(c.CoverageFiles)
	clone.Excludes = slices.Clone(c.Excludes)
	clone.SrcRoots = slices.Clone(c.SrcRoots)
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processDiffInputs(cfg, input); err != nil {
		return err
	}
	if err := resolveGitPath(ctx, cfg, client, input); err != nil {
		return err
	}
	if err := processCoverageInputs(cfg, input); err != nil {
		return err
	}
	return nil
}

// RevalidateCoverage re-checks the coverage related fields of an already processed
// config after a caller has overridden them (e.g. an MCP tool request).
func RevalidateCoverage(cfg *Config) error {
	if len(cfg.CoverageFiles) == 0 {
		return fmt.Errorf("at least one coverage file is required")
	}
	if _, ok := schema.ValidCoverageFormats[cfg.Format]; !ok {
		return fmt.Errorf("invalid coverage format '%s'. must be auto, cobertura, jacoco, gocover, coveragepy, gcovr", cfg.Format)
	}
	if err := validateFailUnder(cfg.FailUnder); err != nil {
		return err
	}
	files, err := resolveCoverageFiles(cfg.RepoPath, cfg.CoverageFiles)
	if err != nil {
		return err
	}
	cfg.CoverageFiles = files
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Both stores create their own tables, so they cannot share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cmp.Or(cfg.CacheDBConnect, GetCacheDBFilePath())
		historyDBPath := cmp.Or(cfg.HistoryDBConnect, GetHistoryDBFilePath())
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.GoModule = strings.TrimSpace(input.GoModule)

	colors, err := ParseBoolString(cmp.Or(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	limit := input.Limit
	if limit == 0 {
		limit = DefaultResultLimit
	}
	if limit < 0 || limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(cmp.Or(input.Output, string(schema.TextOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, markdown, html, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 4. Gate Validation ---
	if err := validateFailUnder(input.FailUnder); err != nil {
		return err
	}
	cfg.FailUnder = input.FailUnder

	// --- 5. Backend Validation ---
	return validateBackendConfigs(cfg, input)
}

// processDiffInputs handles everything that shapes the set of changed lines.
func processDiffInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.CompareBranch = strings.TrimSpace(input.CompareBranch)
	if cfg.CompareBranch == "" {
		cfg.CompareBranch = schema.DefaultCompareBranch
	}
	if strings.HasPrefix(cfg.CompareBranch, "-") {
		return fmt.Errorf("invalid compare branch %q", cfg.CompareBranch)
	}
	cfg.IgnoreStaged = input.IgnoreStaged
	cfg.IgnoreUnstaged = input.IgnoreUnstaged
	cfg.Excludes = SplitList(input.Exclude)

	cfg.SrcRoots = SplitList(input.SrcRoots)
	if input.SrcRoots == "" {
		cfg.SrcRoots = slices.Clone(schema.DefaultSrcRoots)
	}
	return nil
}

// processCoverageInputs validates the format and resolves the coverage files.
func processCoverageInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Format = schema.CoverageFormat(strings.ToLower(cmp.Or(input.Format, string(schema.AutoFormat))))
	if _, ok := schema.ValidCoverageFormats[cfg.Format]; !ok {
		return fmt.Errorf("invalid coverage format '%s'. must be auto, cobertura, jacoco, gocover, coveragepy, gcovr", input.Format)
	}

	files, err := resolveCoverageFiles(cfg.RepoPath, input.CoverageFiles)
	if err != nil {
		return err
	}
	cfg.CoverageFiles = files

	cfg.HTMLReport = input.HTMLReport
	cfg.ExternalCSSFile = input.ExternalCSSFile
	if cfg.ExternalCSSFile != "" && cfg.HTMLReport == "" && cfg.Output != schema.HTMLOut {
		return fmt.Errorf("--external-css-file requires --html-report or --output html")
	}
	return nil
}

// resolveCoverageFiles makes coverage file paths absolute and checks that they exist.
// Relative paths are tried against the working directory first, then the repository root.
func resolveCoverageFiles(repoPath string, files []string) ([]string, error) {
	resolved := make([]string, 0, len(files))
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		candidates := []string{f}
		if !filepath.IsAbs(f) && repoPath != "" {
			candidates = append(candidates, filepath.Join(repoPath, f))
		}
		found := ""
		for _, c := range candidates {
			abs, err := filepath.Abs(c)
			if err != nil {
				continue
			}
			if info, err := os.Stat(abs); err == nil && !info.IsDir() {
				found = abs
				break
			}
		}
		if found == "" {
			return nil, fmt.Errorf("coverage file %q does not exist or is a directory", f)
		}
		resolved = append(resolved, found)
	}
	return resolved, nil
}

func validateFailUnder(v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("fail-under must be between 0 and 100 (received %g)", v)
	}
	return nil
}

// ProcessProfilingConfig processes the profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveGitPath resolves the Git repository root from the --repo flag.
func resolveGitPath(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := cmp.Or(input.Repo, ".")
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	gitContextPath := absSearchPath
	if info, statErr := os.Stat(absSearchPath); statErr == nil && !info.IsDir() {
		gitContextPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, gitContextPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = gitRoot
	return nil
}
