package iocache

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/diffcover/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diffparquet "github.com/huangsam/diffcover/internal/parquet"
)

func TestPrintCacheStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{
		Backend:         "sqlite",
		Connected:       true,
		TotalEntries:    1200,
		LastEntryTime:   time.Now().Add(-2 * time.Hour),
		OldestEntryTime: time.Now().Add(-48 * time.Hour),
		TableSizeBytes:  2_500_000,
	})
	out := buf.String()
	assert.Contains(t, out, "Cache Backend: sqlite")
	assert.Contains(t, out, "Total Entries: 1,200")
	assert.Contains(t, out, "(2 hours ago)")
	assert.Contains(t, out, "Table Size: 2.5 MB")

	buf.Reset()
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.NotContains(t, buf.String(), "Total Entries")
}

func TestPrintHistoryStatus(t *testing.T) {
	percent := 87.5
	var buf bytes.Buffer
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend:           "postgresql",
		Connected:         true,
		TotalRuns:         3,
		LastRunID:         3,
		LastRunTime:       time.Now(),
		OldestRunTime:     time.Now().Add(-time.Hour),
		TotalFileResults:  9,
		LastRunPercentage: &percent,
		TableSizes:        map[string]int64{runsTable: 8192, fileResultsTable: 16384},
	})
	out := buf.String()
	assert.Contains(t, out, "History Backend: postgresql")
	assert.Contains(t, out, "Last Run Coverage: 87.5%")
	assert.Contains(t, out, "Total File Results: 9")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(fileResultsTable)), bytes.Index(buf.Bytes(), []byte(runsTable+":")), "tables are sorted")
}

func TestExecuteHistoryExport(t *testing.T) {
	t.Run("writes both files", func(t *testing.T) {
		store := newTestHistoryStore(t)
		recordSampleRun(t, store, time.Now().Add(-time.Minute), 50)

		out := filepath.Join(t.TempDir(), "history")
		var buf bytes.Buffer
		require.NoError(t, ExecuteHistoryExport(&buf, store, out))
		assert.Contains(t, buf.String(), "Exported 1 runs")

		runs, err := parquet.ReadFile[diffparquet.Run](out + ".runs.parquet")
		require.NoError(t, err)
		assert.Len(t, runs, 1)

		results, err := parquet.ReadFile[diffparquet.FileResult](out + ".file_results.parquet")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "4-6,9", results[0].ViolationLines)
	})

	t.Run("empty history", func(t *testing.T) {
		store := newTestHistoryStore(t)
		err := ExecuteHistoryExport(&bytes.Buffer{}, store, filepath.Join(t.TempDir(), "out"))
		assert.ErrorContains(t, err, "no run history")
	})

	t.Run("missing output file", func(t *testing.T) {
		err := ExecuteHistoryExport(&bytes.Buffer{}, &MockHistoryStore{}, "")
		assert.ErrorContains(t, err, "--output-file")
	})

	t.Run("tracking disabled", func(t *testing.T) {
		err := ExecuteHistoryExport(&bytes.Buffer{}, nil, "out")
		assert.ErrorContains(t, err, "not enabled")
	})
}
