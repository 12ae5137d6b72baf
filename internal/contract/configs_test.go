package contract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/diffcover/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation, for tests to tweak.
func validInput(coverageFile string) *ConfigRawInput {
	return &ConfigRawInput{
		CoverageFiles: []string{coverageFile},
		Repo:          ".",
		Workers:       4,
		Precision:     1,
		Output:        "text",
		Color:         "yes",
		CacheBackend:  string(schema.SQLiteBackend),
	}
}

func TestProcessAndValidate(t *testing.T) {
	covFile := filepath.Join(t.TempDir(), "coverage.xml")
	require.NoError(t, os.WriteFile(covFile, []byte("<coverage/>"), 0o644))

	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		needsGit    bool
		check       func(*testing.T, *Config)
	}{
		{
			name:     "valid minimal config uses defaults",
			needsGit: true,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/mock/repo/root", cfg.RepoPath)
				assert.Equal(t, schema.DefaultCompareBranch, cfg.CompareBranch)
				assert.Equal(t, []string{"src/main/java", "src/test/java"}, cfg.SrcRoots)
				assert.Equal(t, schema.AutoFormat, cfg.Format)
				assert.Equal(t, DefaultResultLimit, cfg.ResultLimit)
				assert.Equal(t, []string{covFile}, cfg.CoverageFiles)
				assert.True(t, cfg.UseColors)
			},
		},
		{
			name:     "custom diff inputs",
			needsGit: true,
			mutate: func(in *ConfigRawInput) {
				in.CompareBranch = "origin/main"
				in.SrcRoots = "lib, src ,"
				in.Exclude = "vendor/,*_test.go"
				in.IgnoreStaged = true
				in.FailUnder = 80
				in.Format = "COBERTURA"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "origin/main", cfg.CompareBranch)
				assert.Equal(t, []string{"lib", "src"}, cfg.SrcRoots)
				assert.Equal(t, []string{"vendor/", "*_test.go"}, cfg.Excludes)
				assert.True(t, cfg.IgnoreStaged)
				assert.False(t, cfg.IgnoreUnstaged)
				assert.Equal(t, 80.0, cfg.FailUnder)
				assert.Equal(t, schema.CoberturaFormat, cfg.Format)
			},
		},
		{
			name:        "invalid workers",
			mutate:      func(in *ConfigRawInput) { in.Workers = 0 },
			expectError: true,
		},
		{
			name:        "invalid precision",
			mutate:      func(in *ConfigRawInput) { in.Precision = 3 },
			expectError: true,
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "parquet without output file",
			mutate:      func(in *ConfigRawInput) { in.Output = "parquet" },
			expectError: true,
		},
		{
			name:        "fail-under above 100",
			mutate:      func(in *ConfigRawInput) { in.FailUnder = 100.5 },
			expectError: true,
		},
		{
			name:        "negative fail-under",
			mutate:      func(in *ConfigRawInput) { in.FailUnder = -1 },
			expectError: true,
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "maybe" },
			expectError: true,
		},
		{
			name:        "compare branch looks like a flag",
			mutate:      func(in *ConfigRawInput) { in.CompareBranch = "--output=x" },
			expectError: true,
		},
		{
			name:        "invalid format",
			needsGit:    true,
			mutate:      func(in *ConfigRawInput) { in.Format = "lcov" },
			expectError: true,
		},
		{
			name:        "missing coverage file",
			needsGit:    true,
			mutate:      func(in *ConfigRawInput) { in.CoverageFiles = []string{"/definitely/missing.xml"} },
			expectError: true,
		},
		{
			name:     "css without html report",
			needsGit: true,
			mutate: func(in *ConfigRawInput) {
				in.ExternalCSSFile = "style.css"
			},
			expectError: true,
		},
		{
			name:        "invalid history backend",
			mutate:      func(in *ConfigRawInput) { in.HistoryBackend = "redis" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := new(MockGitClient)
			workDir, err := filepath.Abs(".")
			require.NoError(t, err)

			ctx := context.Background()
			if tt.needsGit {
				mockClient.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)
			}

			input := validInput(covFile)
			if tt.mutate != nil {
				tt.mutate(input)
			}

			cfg := &Config{}
			err = ProcessAndValidate(ctx, cfg, mockClient, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				tt.check(t, cfg)
			}
			mockClient.AssertExpectations(t)
		})
	}
}

func TestValidateBackendConfigs(t *testing.T) {
	t.Run("same sqlite file rejected", func(t *testing.T) {
		input := &ConfigRawInput{
			CacheBackend:     "sqlite",
			CacheDBConnect:   "/tmp/same.db",
			HistoryBackend:   "sqlite",
			HistoryDBConnect: "/tmp/same.db",
		}
		err := validateBackendConfigs(&Config{}, input)
		assert.ErrorContains(t, err, "different SQLite database files")
	})

	t.Run("default paths differ", func(t *testing.T) {
		input := &ConfigRawInput{CacheBackend: "sqlite", HistoryBackend: "sqlite"}
		assert.NoError(t, validateBackendConfigs(&Config{}, input))
	})

	t.Run("history disabled", func(t *testing.T) {
		cfg := &Config{}
		assert.NoError(t, validateBackendConfigs(cfg, &ConfigRawInput{CacheBackend: "none"}))
		assert.Equal(t, schema.DatabaseBackend(""), cfg.HistoryBackend)
	})
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "", true},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)/db", false},
		{schema.MySQLBackend, "user:pass@localhost", true},
		{schema.PostgreSQLBackend, "host=localhost dbname=db", false},
		{schema.PostgreSQLBackend, "host=localhost", true},
		{schema.PostgreSQLBackend, "dbname=db", true},
	}
	for _, tt := range tests {
		err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
		if tt.wantErr {
			assert.Error(t, err, "%s %q", tt.backend, tt.conn)
		} else {
			assert.NoError(t, err, "%s %q", tt.backend, tt.conn)
		}
	}
}

func TestRevalidateCoverage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.out"), []byte("mode: set\n"), 0o644))

	cfg := &Config{RepoPath: dir, Format: schema.AutoFormat, CoverageFiles: []string{"c.out"}}
	require.NoError(t, RevalidateCoverage(cfg))
	assert.Equal(t, []string{filepath.Join(dir, "c.out")}, cfg.CoverageFiles)

	assert.Error(t, RevalidateCoverage(&Config{Format: schema.AutoFormat}))
	assert.Error(t, RevalidateCoverage(&Config{Format: "bogus", CoverageFiles: []string{"c.out"}, RepoPath: dir}))
	assert.Error(t, RevalidateCoverage(&Config{Format: schema.AutoFormat, CoverageFiles: []string{"c.out"}, RepoPath: dir, FailUnder: 101}))
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{CoverageFiles: []string{"a"}, SrcRoots: []string{"src"}, Excludes: []string{"x"}}
	clone := cfg.Clone()
	clone.CoverageFiles[0] = "b"
	clone.SrcRoots = append(clone.SrcRoots, "lib")
	clone.Excludes[0] = "y"
	assert.Equal(t, []string{"a"}, cfg.CoverageFiles)
	assert.Equal(t, []string{"src"}, cfg.SrcRoots)
	assert.Equal(t, []string{"x"}, cfg.Excludes)
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)
	require.NoError(t, ProcessProfilingConfig(profile, "run"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "run", profile.Prefix)
}
