// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/diffcover/schema"
)

// GitClient defines the Git operations needed to collect a diff.
// This allows the core logic to be tested without needing a real git executable.
type GitClient interface {
	// --- Generic / Low-Level ---

	// Run executes a git command and returns its standard output.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// --- Repository Resolution ---

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// --- Diffs ---

	// GetCommittedDiff returns the unified diff of HEAD against its merge base with compareBranch.
	GetCommittedDiff(ctx context.Context, repoPath string, compareBranch string) ([]byte, error)

	// GetStagedDiff returns the unified diff of the index against HEAD.
	GetStagedDiff(ctx context.Context, repoPath string) ([]byte, error)

	// GetUnstagedDiff returns the unified diff of the working tree against the index.
	GetUnstagedDiff(ctx context.Context, repoPath string) ([]byte, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetCoverageStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking diff coverage runs over time.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, compareBranch string, configParams map[string]any) (int64, error)

	// RecordFileResult stores the diff coverage of one file for a run
	RecordFileResult(runID int64, result schema.FileCoverageResult) error

	// EndRun updates the run with completion data
	EndRun(runID int64, summary schema.RunSummary) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetRecentRuns returns up to limit runs, newest first
	GetRecentRuns(limit int) ([]schema.RunRecord, error)

	// GetAllRuns returns every run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllFileResults returns every recorded file result
	GetAllFileResults() ([]schema.FileResultRecord, error)

	// Close closes the underlying connection
	Close() error
}
