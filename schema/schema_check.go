package schema

// CheckResult holds the outcome of the fail-under gate.
type CheckResult struct {
	Passed         bool                 `json:"passed"`
	PercentCovered float64              `json:"percent_covered"`
	FailUnder      float64              `json:"fail_under"`
	TotalTrackable int                  `json:"total_trackable"`
	TotalCovered   int                  `json:"total_covered"`
	FilesReported  int                  `json:"files_reported"`
	CompareBranch  string               `json:"compare_branch"`
	Violations     []FileCoverageResult `json:"violations"` // Files with at least one violation, worst first
}

// NewCheckResult evaluates the gate on a report. The gate passes when the
// total percentage is at least the threshold.
func NewCheckResult(report DiffCoverReport, failUnder float64) CheckResult {
	result := CheckResult{
		Passed:         report.Total.PercentCovered >= failUnder,
		PercentCovered: report.Total.PercentCovered,
		FailUnder:      failUnder,
		TotalTrackable: report.Total.TotalTrackableChanged,
		TotalCovered:   report.Total.TotalCoveredChanged,
		FilesReported:  len(report.Files),
		CompareBranch:  report.CompareBranch,
		Violations:     []FileCoverageResult{},
	}
	for _, f := range report.Files {
		if len(f.ViolationLines) > 0 {
			result.Violations = append(result.Violations, f)
		}
	}
	SortWorstFirst(result.Violations)
	return result
}
