package changes

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
)

// Collector gathers the changed lines of a repository from git.
type Collector struct {
	Client         contract.GitClient
	RepoPath       string
	CompareBranch  string
	IgnoreStaged   bool
	IgnoreUnstaged bool
	Excludes       []string
}

// NewCollector builds a Collector from the validated config.
func NewCollector(client contract.GitClient, cfg *contract.Config) *Collector {
	return &Collector{
		Client:         client,
		RepoPath:       cfg.RepoPath,
		CompareBranch:  cfg.CompareBranch,
		IgnoreStaged:   cfg.IgnoreStaged,
		IgnoreUnstaged: cfg.IgnoreUnstaged,
		Excludes:       cfg.Excludes,
	}
}

// Description names the diffs the collector reads, for report headers.
func (c *Collector) Description() string {
	parts := []string{c.CompareBranch + "...HEAD"}
	if !c.IgnoreStaged {
		parts = append(parts, "staged")
	}
	if !c.IgnoreUnstaged {
		parts = append(parts, "unstaged")
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return fmt.Sprintf("%s, %s changes", parts[0], strings.Join(parts[1:], " and "))
}

// Collect returns every changed file that still exists and is not excluded.
func (c *Collector) Collect(ctx context.Context) (map[string]schema.ChangedFile, error) {
	type source struct {
		name string
		read func() ([]byte, error)
	}
	sources := []source{{
		name: "committed",
		read: func() ([]byte, error) { return c.Client.GetCommittedDiff(ctx, c.RepoPath, c.CompareBranch) },
	}}
	if !c.IgnoreStaged {
		sources = append(sources, source{"staged", func() ([]byte, error) { return c.Client.GetStagedDiff(ctx, c.RepoPath) }})
	}
	if !c.IgnoreUnstaged {
		sources = append(sources, source{"unstaged", func() ([]byte, error) { return c.Client.GetUnstagedDiff(ctx, c.RepoPath) }})
	}

	sets := make([]map[string]schema.ChangedFile, 0, len(sources))
	for _, src := range sources {
		out, err := src.read()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s diff: %w", src.name, err)
		}
		parsed, err := ParseUnifiedDiff(out)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s diff: %w", src.name, err)
		}
		sets = append(sets, parsed)
	}

	changed := Union(sets...)
	for p, cf := range changed {
		if cf.IsDeleted || contract.ShouldIgnore(p, c.Excludes) {
			delete(changed, p)
		}
	}
	return changed, nil
}
