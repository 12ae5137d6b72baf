// Package core has the orchestration for diff coverage runs: building
// reports, the fail-under gate and run history.
package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/internal/outwriter"
	"github.com/huangsam/diffcover/schema"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// CoverageThresholdError is returned when diff coverage is below --fail-under.
type CoverageThresholdError struct {
	Percent   float64
	FailUnder float64
}

func (e *CoverageThresholdError) Error() string {
	return fmt.Sprintf("Failure. Coverage is below %s%%.", strconv.FormatFloat(e.FailUnder, 'f', -1, 64))
}

// checkThreshold applies the fail-under gate.
func checkThreshold(report *schema.DiffCoverReport, failUnder float64) error {
	if report.Total.PercentCovered >= failUnder {
		return nil
	}
	return &CoverageThresholdError{Percent: report.Total.PercentCovered, FailUnder: failUnder}
}

// GetDiffCoverReport builds a diff coverage report without printing it.
func GetDiffCoverReport(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.DiffCoverReport, error) {
	return buildReport(NewDiffCoverBuilder(ctx, cfg, mgr))
}

// buildReport runs every builder step in order.
func buildReport(builder *DiffCoverBuilder) (*schema.DiffCoverReport, error) {
	if _, err := builder.CollectChanges(); err != nil {
		return nil, err
	}
	if _, err := builder.LoadCoverage(); err != nil {
		return nil, err
	}
	return builder.Correlate().BuildReport().GetReport(), nil
}

// ExecuteDiffCoverReport builds the report, writes it in the configured
// format (plus the HTML report when requested), records the run and applies
// the fail-under gate.
func ExecuteDiffCoverReport(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	return executeReport(cfg, mgr, NewDiffCoverBuilder(ctx, cfg, mgr))
}

func executeReport(cfg *contract.Config, mgr contract.CacheManager, builder *DiffCoverBuilder) error {
	start := time.Now()
	report, err := buildReport(builder)
	if err != nil {
		return err
	}

	if err := outwriter.WriteDiffCoverReport(report, cfg, time.Since(start)); err != nil {
		return err
	}
	if cfg.HTMLReport != "" {
		if err := outwriter.WriteHTMLReportFile(report, cfg); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
	}

	recordRun(historyStore(mgr), cfg, report, start)
	return checkThreshold(report, cfg.FailUnder)
}

// ExecuteDiffCoverCheck runs the check command for CI/CD gating. It prints
// a concise summary with the worst files and returns a
// CoverageThresholdError when the gate fails.
func ExecuteDiffCoverCheck(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	return executeCheck(cfg, mgr, NewDiffCoverBuilder(ctx, cfg, mgr))
}

func executeCheck(cfg *contract.Config, mgr contract.CacheManager, builder *DiffCoverBuilder) error {
	start := time.Now()
	report, err := buildReport(builder)
	if err != nil {
		return err
	}

	result := schema.NewCheckResult(*report, cfg.FailUnder)
	if err := printCheckResult(os.Stdout, result, cfg, time.Since(start)); err != nil {
		return err
	}

	recordRun(historyStore(mgr), cfg, report, start)
	return checkThreshold(report, cfg.FailUnder)
}

// GetCheckResult builds a report and evaluates the gate without printing.
func GetCheckResult(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.CheckResult, error) {
	report, err := GetDiffCoverReport(ctx, cfg, mgr)
	if err != nil {
		return schema.CheckResult{}, err
	}
	return schema.NewCheckResult(*report, cfg.FailUnder), nil
}
