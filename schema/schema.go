// Package schema has models, enums and formatting helpers for all parts of diffcover.
package schema

import "time"

// ChangedFile is a file touched by the diff, keyed by its repository-relative path.
type ChangedFile struct {
	Path       string `json:"path"`        // Repository-relative path in the new revision
	AddedLines []int  `json:"added_lines"` // Ascending, de-duplicated line numbers added in the new revision
	IsNewFile  bool   `json:"is_new_file"` // File did not exist at the merge base
	IsDeleted  bool   `json:"is_deleted"`  // File no longer exists in the new revision
}

// LineStatus is the coverage verdict for one instrumented line.
// A line missing from a LineStatuses map is not tracked.
type LineStatus uint8

const (
	Uncovered LineStatus = iota + 1
	Covered
)

// String returns the lowercase name of the status.
func (s LineStatus) String() string {
	switch s {
	case Covered:
		return "covered"
	case Uncovered:
		return "uncovered"
	default:
		return "untracked"
	}
}

// LineStatuses is a sparse line number to status mapping.
type LineStatuses map[int]LineStatus

// CoverageRecord is the per-line coverage for one file.
type CoverageRecord struct {
	Path  string       `json:"path"`
	Lines LineStatuses `json:"lines"`
}

// CoverageReport is one decoded coverage input.
type CoverageReport struct {
	Source  string           `json:"source"`            // File the report was read from
	Format  CoverageFormat   `json:"format"`            // Format the report was decoded as
	Sources []string         `json:"sources,omitempty"` // Source roots declared by the report itself
	Records []CoverageRecord `json:"records"`
}

// FileCoverageResult is the diff coverage of one file that appears in both the diff and the coverage data.
type FileCoverageResult struct {
	Path                  string  `json:"path"`
	ViolationLines        []int   `json:"violation_lines"`
	TrackableChangedCount int     `json:"trackable_changed_count"`
	CoveredChangedCount   int     `json:"covered_changed_count"`
	PercentCovered        float64 `json:"percent_covered"`
}

// TotalResult is the sum over every FileCoverageResult.
type TotalResult struct {
	TotalTrackableChanged int     `json:"total_trackable_changed"`
	TotalCoveredChanged   int     `json:"total_covered_changed"`
	PercentCovered        float64 `json:"percent_covered"`
}

// ViolationCount is the number of changed lines that are tracked but not covered.
func (t TotalResult) ViolationCount() int {
	return t.TotalTrackableChanged - t.TotalCoveredChanged
}

// DiffCoverReport is everything a renderer needs to present one run.
type DiffCoverReport struct {
	CompareBranch   string               `json:"compare_branch"`
	DiffDescription string               `json:"diff_description"`
	RepoPath        string               `json:"repo_path"`
	CoverageInputs  []string             `json:"coverage_inputs"`
	Files           []FileCoverageResult `json:"files"`
	Total           TotalResult          `json:"total"`
	NoCoverageFiles []string             `json:"no_coverage_files"` // Changed files with no coverage record
	MergeConflicts  int                  `json:"merge_conflicts"`   // Lines where inputs disagreed before merge
	GeneratedAt     time.Time            `json:"generated_at"`
}
