package core

import (
	"time"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
)

// recordRun stores a finished report in the run history. Failures are
// logged and never fail the run.
func recordRun(store contract.HistoryStore, cfg *contract.Config, report *schema.DiffCoverReport, startTime time.Time) {
	if store == nil || report == nil {
		return
	}

	configParams := map[string]any{
		"repo_path":       cfg.RepoPath,
		"coverage_files":  cfg.CoverageFiles,
		"src_roots":       cfg.SrcRoots,
		"format":          string(cfg.Format),
		"ignore_staged":   cfg.IgnoreStaged,
		"ignore_unstaged": cfg.IgnoreUnstaged,
		"fail_under":      cfg.FailUnder,
	}
	runID, err := store.BeginRun(startTime, report.CompareBranch, configParams)
	if err != nil {
		contract.LogWarn("Run history initialization failed", err)
		return
	}
	if runID <= 0 {
		return // Tracking disabled
	}

	for _, result := range report.Files {
		if err := store.RecordFileResult(runID, result); err != nil {
			contract.LogWarn("Failed to record file result for "+result.Path, err)
		}
	}

	summary := schema.RunSummary{
		EndTime:        time.Now(),
		FilesReported:  len(report.Files),
		TotalTrackable: report.Total.TotalTrackableChanged,
		TotalCovered:   report.Total.TotalCoveredChanged,
		PercentCovered: report.Total.PercentCovered,
	}
	if err := store.EndRun(runID, summary); err != nil {
		contract.LogWarn("Failed to finalize run history", err)
	}
}
