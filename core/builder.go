package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/diffcover/core/algo"
	"github.com/huangsam/diffcover/core/changes"
	"github.com/huangsam/diffcover/core/coverage"
	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
)

// DiffCoverBuilder builds a diff coverage report using a builder pattern.
type DiffCoverBuilder struct {
	ctx    context.Context
	cfg    *contract.Config
	client contract.GitClient
	mgr    contract.CacheManager

	// Internal data collected during the build process
	description string
	changed     map[string]schema.ChangedFile
	reports     []schema.CoverageReport
	records     map[string]schema.CoverageRecord
	stats       algo.MergeStats
	results     []schema.FileCoverageResult
	report      *schema.DiffCoverReport
}

// NewDiffCoverBuilder creates a new builder for diff coverage reports.
func NewDiffCoverBuilder(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) *DiffCoverBuilder {
	return &DiffCoverBuilder{
		ctx:    ctx,
		cfg:    cfg,
		client: contract.NewLocalGitClient(),
		mgr:    mgr,
	}
}

// CollectChanges reads the committed, staged and unstaged diffs.
func (b *DiffCoverBuilder) CollectChanges() (*DiffCoverBuilder, error) {
	collector := changes.NewCollector(b.client, b.cfg)
	b.description = collector.Description()

	if !shouldSuppressHeader(b.ctx) {
		contract.LogDiffCoverHeader(b.cfg, b.description)
	}

	changed, err := collector.Collect(b.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect changes against %q: %w. Verify the branch exists (try 'git fetch')", b.cfg.CompareBranch, err)
	}
	b.changed = changed
	return b, nil
}

// LoadCoverage decodes every coverage input, using the decode cache when one is configured.
func (b *DiffCoverBuilder) LoadCoverage() (*DiffCoverBuilder, error) {
	modulePath := b.cfg.GoModule
	if modulePath == "" {
		modulePath = coverage.ReadModulePath(b.cfg.RepoPath)
	}

	loader := &coverage.Loader{
		Format:     b.cfg.Format,
		ModulePath: modulePath,
		Workers:    b.cfg.Workers,
		Store:      coverageStore(b.mgr),
	}
	reports, err := loader.LoadAll(b.ctx, b.cfg.CoverageFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to load coverage: %w", err)
	}
	b.reports = reports
	return b, nil
}

// Correlate reconciles coverage paths with the diff and computes per-file results.
func (b *DiffCoverBuilder) Correlate() *DiffCoverBuilder {
	b.records, b.stats = algo.ReconcileCoverage(b.reports, b.changed, b.cfg.RepoPath, b.cfg.SrcRoots)
	if b.stats.Conflicts > 0 {
		contract.LogWarn("Coverage inputs disagree", fmt.Errorf("%d line(s) are covered in one input and uncovered in another; counting them as covered", b.stats.Conflicts))
	}
	b.results = algo.CorrelateAll(b.changed, b.records)
	return b
}

// BuildReport constructs the final DiffCoverReport.
func (b *DiffCoverBuilder) BuildReport() *DiffCoverBuilder {
	noCoverage := algo.Uncorrelated(b.changed, b.records)
	if noCoverage == nil {
		noCoverage = []string{}
	}
	b.report = &schema.DiffCoverReport{
		CompareBranch:   b.cfg.CompareBranch,
		DiffDescription: b.description,
		RepoPath:        b.cfg.RepoPath,
		CoverageInputs:  b.cfg.CoverageFiles,
		Files:           b.results,
		Total:           algo.Aggregate(b.results),
		NoCoverageFiles: noCoverage,
		MergeConflicts:  b.stats.Conflicts,
		GeneratedAt:     time.Now(),
	}
	return b
}

// GetReport returns the built DiffCoverReport.
func (b *DiffCoverBuilder) GetReport() *schema.DiffCoverReport {
	return b.report
}

// coverageStore returns the decode cache, or nil when there is no manager.
func coverageStore(mgr contract.CacheManager) contract.CacheStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetCoverageStore()
}

// historyStore returns the run history store, or nil when there is no manager.
func historyStore(mgr contract.CacheManager) contract.HistoryStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetHistoryStore()
}
