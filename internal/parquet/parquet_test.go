package parquet

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/diffcover/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRunRecords() []schema.RunRecord {
	now := time.Now().UTC().Truncate(time.Millisecond)
	end := now.Add(2 * time.Second)
	duration := int32(2000)
	percent := 75.0
	params := `{"compare_branch":"origin/main"}`

	return []schema.RunRecord{
		{
			RunID:          1,
			StartTime:      now,
			EndTime:        &end,
			RunDurationMs:  &duration,
			CompareBranch:  "origin/main",
			FilesReported:  3,
			TotalTrackable: 12,
			TotalCovered:   9,
			PercentCovered: &percent,
			ConfigParams:   &params,
		},
		{
			// Still running, so the optional columns are empty
			RunID:         2,
			StartTime:     now.Add(time.Minute),
			CompareBranch: "origin/main",
		},
	}
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		schema  *parquet.Schema
		columns []string
	}{
		{
			name:   "run",
			schema: parquet.SchemaOf(new(Run)),
			columns: []string{
				"run_id", "start_time", "end_time", "run_duration_ms", "compare_branch",
				"files_reported", "total_trackable", "total_covered", "percent_covered", "config_params",
			},
		},
		{
			name:   "file result",
			schema: parquet.SchemaOf(new(FileResult)),
			columns: []string{
				"run_id", "file_path", "recorded_at", "trackable_lines", "covered_lines",
				"percent_covered", "violation_lines",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, colName := range tt.columns {
				_, ok := tt.schema.Lookup(colName)
				assert.True(t, ok, "Column %s should exist in schema", colName)
			}
		})
	}
}

func TestWriteRunsParquetRoundTrip(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	runs := ConvertRunRecords(sampleRunRecords())

	require.NoError(t, WriteRunsParquet(runs, outputPath))

	rows, err := parquet.ReadFile[Run](outputPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].RunID)
	require.NotNil(t, rows[0].PercentCovered)
	assert.InDelta(t, 75.0, *rows[0].PercentCovered, 1e-9)
	assert.Equal(t, int32(12), rows[0].TotalTrackable)
	assert.Nil(t, rows[1].EndTime)
	assert.Nil(t, rows[1].PercentCovered)
	assert.Nil(t, rows[1].ConfigParams)
}

func TestWriteFileResultsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "file_results.parquet")
	records := []schema.FileResultRecord{
		{RunID: 1, FilePath: "a.go", RecordedAt: time.Now(), TrackableLines: 4, CoveredLines: 3, PercentCovered: 75, ViolationLines: "9"},
		{RunID: 1, FilePath: "b.go", RecordedAt: time.Now(), TrackableLines: 1, CoveredLines: 1, PercentCovered: 100},
	}

	require.NoError(t, WriteFileResultsParquet(ConvertFileResultRecords(records), outputPath))

	rows, err := parquet.ReadFile[FileResult](outputPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a.go", rows[0].FilePath)
	assert.Equal(t, "9", rows[0].ViolationLines)
	assert.Empty(t, rows[1].ViolationLines)
}

func TestWriteParquetBadPath(t *testing.T) {
	err := WriteRunsParquet(nil, filepath.Join(t.TempDir(), "missing", "runs.parquet"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output file")
}

func TestConvertReport(t *testing.T) {
	generated := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	report := &schema.DiffCoverReport{
		GeneratedAt: generated,
		Files: []schema.FileCoverageResult{
			{Path: "a.go", ViolationLines: []int{11, 14, 15, 16}, TrackableChangedCount: 6, CoveredChangedCount: 2, PercentCovered: 33.3},
		},
	}

	rows, err := ConvertReport(report)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, FileResult{
		FilePath:       "a.go",
		RecordedAt:     generated,
		TrackableLines: 6,
		CoveredLines:   2,
		PercentCovered: 33.3,
		ViolationLines: "11,14-16",
	}, rows[0])

	var buf bytes.Buffer
	require.NoError(t, WriteFileResults(&buf, rows))
	assert.Equal(t, "PAR1", buf.String()[:4])
}

func TestConvertReportOverflow(t *testing.T) {
	if math.MaxInt == math.MaxInt32 {
		t.Skip("int is 32 bits")
	}
	report := &schema.DiffCoverReport{
		Files: []schema.FileCoverageResult{{Path: "huge.go", TrackableChangedCount: math.MaxInt32 + 1}},
	}
	_, err := ConvertReport(report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "huge.go")
}

func TestWriteFileResultsToFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.parquet")
	f, err := os.Create(outputPath)
	require.NoError(t, err)
	require.NoError(t, WriteFileResults(f, []FileResult{{FilePath: "x.go"}}))
	require.NoError(t, f.Close())

	rows, err := parquet.ReadFile[FileResult](outputPath)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
