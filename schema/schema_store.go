package schema

import "time"

// RunSummary is what the history store records when a run finishes.
type RunSummary struct {
	EndTime        time.Time
	FilesReported  int
	TotalTrackable int
	TotalCovered   int
	PercentCovered float64
}

// RunRecord represents a row from the diffcover_runs table.
type RunRecord struct {
	RunID          int64
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int32
	CompareBranch  string
	FilesReported  int32
	TotalTrackable int32
	TotalCovered   int32
	PercentCovered *float64
	ConfigParams   *string
}

// FileResultRecord represents a row from the diffcover_file_results table.
type FileResultRecord struct {
	RunID          int64
	FilePath       string
	RecordedAt     time.Time
	TrackableLines int32
	CoveredLines   int32
	PercentCovered float64
	ViolationLines string // Compressed ranges, e.g. "11,14-16"
}
