// Package parquet provides data structures and functions for exporting diff
// coverage data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"fortio.org/safecast"
	"github.com/huangsam/diffcover/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single diff coverage run with metadata.
// This struct maps to the diffcover_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// CompareBranch is the branch the diff was taken against
	CompareBranch string `parquet:"compare_branch,snappy"`

	// FilesReported is the number of changed files that had coverage data
	FilesReported int32 `parquet:"files_reported,snappy"`

	TotalTrackable int32 `parquet:"total_trackable,snappy"`
	TotalCovered   int32 `parquet:"total_covered,snappy"`

	// PercentCovered is the diff coverage of the run (nullable until the run ends)
	PercentCovered *float64 `parquet:"percent_covered,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FileResult represents the diff coverage of a single file in a run.
// This struct maps to the diffcover_file_results database table.
type FileResult struct {
	// RunID references the parent run
	RunID int64 `parquet:"run_id,snappy"`

	// FilePath is the relative path to the file in the repository
	FilePath string `parquet:"file_path,snappy"`

	// RecordedAt is when this result was stored
	RecordedAt time.Time `parquet:"recorded_at,snappy"`

	TrackableLines int32   `parquet:"trackable_lines,snappy"`
	CoveredLines   int32   `parquet:"covered_lines,snappy"`
	PercentCovered float64 `parquet:"percent_covered,snappy"`

	// ViolationLines holds compressed line ranges such as "11,14-16"
	ViolationLines string `parquet:"violation_lines,snappy"`
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteFileResultsParquet writes a slice of FileResult structs to a Parquet file.
func WriteFileResultsParquet(data []FileResult, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteFileResults writes rows to w. Used for --output parquet.
func WriteFileResults(w io.Writer, data []FileResult) error {
	return writeRows(w, data)
}

func writeFile[T any](data []T, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return writeRows(file, data)
}

// writeRows infers the schema from the struct tags of T.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:          record.RunID,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			RunDurationMs:  record.RunDurationMs,
			CompareBranch:  record.CompareBranch,
			FilesReported:  record.FilesReported,
			TotalTrackable: record.TotalTrackable,
			TotalCovered:   record.TotalCovered,
			PercentCovered: record.PercentCovered,
			ConfigParams:   record.ConfigParams,
		}
	}
	return result
}

// ConvertFileResultRecords converts schema.FileResultRecord to FileResult for Parquet export.
func ConvertFileResultRecords(records []schema.FileResultRecord) []FileResult {
	result := make([]FileResult, len(records))
	for i, record := range records {
		result[i] = FileResult{
			RunID:          record.RunID,
			FilePath:       record.FilePath,
			RecordedAt:     record.RecordedAt,
			TrackableLines: record.TrackableLines,
			CoveredLines:   record.CoveredLines,
			PercentCovered: record.PercentCovered,
			ViolationLines: record.ViolationLines,
		}
	}
	return result
}

// ConvertReport turns the file results of a report into rows. RunID is 0
// since a live report has not been stored.
func ConvertReport(report *schema.DiffCoverReport) ([]FileResult, error) {
	result := make([]FileResult, 0, len(report.Files))
	for _, f := range report.Files {
		trackable, err := safecast.Conv[int32](f.TrackableChangedCount)
		if err != nil {
			return nil, fmt.Errorf("trackable line count of %s: %w", f.Path, err)
		}
		covered, err := safecast.Conv[int32](f.CoveredChangedCount)
		if err != nil {
			return nil, fmt.Errorf("covered line count of %s: %w", f.Path, err)
		}
		result = append(result, FileResult{
			FilePath:       f.Path,
			RecordedAt:     report.GeneratedAt,
			TrackableLines: trackable,
			CoveredLines:   covered,
			PercentCovered: f.PercentCovered,
			ViolationLines: schema.FormatLineRanges(f.ViolationLines),
		})
	}
	return result, nil
}
