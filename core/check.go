package core

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
)

// printCheckResult prints the check result in a concise format suitable for CI/CD.
func printCheckResult(w io.Writer, result schema.CheckResult, cfg *contract.Config, duration time.Duration) error {
	if err := printCheckHeader(w, result, cfg, duration); err != nil {
		return err
	}
	if result.Passed {
		return printCheckSuccess(w, result, cfg)
	}
	return printCheckFailure(w, result, cfg)
}

// printCheckHeader prints the common header information for check results.
func printCheckHeader(w io.Writer, result schema.CheckResult, cfg *contract.Config, duration time.Duration) error {
	if _, err := fmt.Fprintln(w, "Diff Coverage Check:"); err != nil {
		return err
	}

	// Define labels and values for dynamic padding
	labels := []string{"Compare:", "Coverage:", "Fail under:"}
	values := []any{
		result.CompareBranch + "...HEAD",
		fmt.Sprintf("%.*f%% (%d of %d changed lines)", cfg.Precision, result.PercentCovered, result.TotalCovered, result.TotalTrackable),
		fmt.Sprintf("%.*f%%", cfg.Precision, result.FailUnder),
	}

	// Find the longest label for consistent padding
	maxLabelLen := 0
	for _, label := range labels {
		maxLabelLen = max(maxLabelLen, len(label))
	}

	for i, label := range labels {
		if _, err := fmt.Fprintf(w, "  %-*s %v\n", maxLabelLen+1, label, values[i]); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\nChecked %d files in %v\n\n", result.FilesReported, duration)
	return err
}

// printCheckSuccess prints the success case output.
func printCheckSuccess(w io.Writer, result schema.CheckResult, cfg *contract.Config) error {
	if _, err := fmt.Fprintln(w, contract.PassColor.Sprint("✅ Diff coverage check passed")); err != nil {
		return err
	}
	if len(result.Violations) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nRemaining gaps:"); err != nil {
		return err
	}
	return printViolations(w, result, cfg)
}

// printCheckFailure prints the failure case output.
func printCheckFailure(w io.Writer, result schema.CheckResult, cfg *contract.Config) error {
	msg := fmt.Sprintf("❌ Diff coverage check failed: %.*f%% is below %.*f%%", cfg.Precision, result.PercentCovered, cfg.Precision, result.FailUnder)
	if _, err := fmt.Fprintf(w, "%s\n\n", contract.FailColor.Sprint(msg)); err != nil {
		return err
	}
	return printViolations(w, result, cfg)
}

// printViolations lists the worst files, with "... and N more" past the limit.
func printViolations(w io.Writer, result schema.CheckResult, cfg *contract.Config) error {
	limit := cfg.ResultLimit
	if limit <= 0 {
		limit = contract.DefaultResultLimit
	}
	for i, f := range result.Violations {
		if i >= limit {
			_, err := fmt.Fprintf(w, "  ... and %d more\n", len(result.Violations)-i)
			return err
		}
		if _, err := fmt.Fprintf(w, "  - %s (%.*f%%, missing lines %s)\n",
			f.Path, cfg.Precision, f.PercentCovered, schema.FormatLineRanges(f.ViolationLines)); err != nil {
			return err
		}
	}
	return nil
}
