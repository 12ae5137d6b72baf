package algo

import (
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huangsam/diffcover/schema"
)

// PathRule proposes a repository-relative candidate for a coverage path.
// The boolean is false when the rule does not apply.
type PathRule func(raw string) (string, bool)

// MergeStats summarizes the reconciliation of all coverage inputs.
type MergeStats struct {
	Records   int // Records seen across every report
	Paths     int // Distinct resolved paths after merge
	Conflicts int // Lines reported covered by one input and uncovered by another
}

// NormalizePath converts p to a clean slash path relative to repoRoot when it
// lies under it. Paths outside repoRoot are only cleaned.
func NormalizePath(repoRoot, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.ToSlash(p)
	if root := filepath.ToSlash(repoRoot); root != "" && path.IsAbs(p) {
		root = strings.TrimSuffix(path.Clean(root), "/")
		if p == root {
			return "."
		}
		if rel, ok := strings.CutPrefix(p, root+"/"); ok {
			p = rel
		}
	}
	p = path.Clean(p)
	return strings.TrimPrefix(p, "./")
}

// BuildPathRules returns the ordered rule list: the identity rule first, then
// one prefix rule per source root in the given order. Empty and duplicate
// roots are skipped.
func BuildPathRules(repoRoot string, srcRoots []string) []PathRule {
	rules := []PathRule{identityRule(repoRoot)}
	seen := make(map[string]struct{}, len(srcRoots))
	for _, root := range srcRoots {
		norm := NormalizePath(repoRoot, root)
		if norm == "" || norm == "." {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		rules = append(rules, prefixRule(repoRoot, norm))
	}
	return rules
}

func identityRule(repoRoot string) PathRule {
	return func(raw string) (string, bool) {
		p := NormalizePath(repoRoot, raw)
		return p, p != "" && p != "."
	}
}

func prefixRule(repoRoot, root string) PathRule {
	return func(raw string) (string, bool) {
		p := NormalizePath(repoRoot, raw)
		if p == "" || p == "." || path.IsAbs(p) {
			return "", false
		}
		return path.Join(root, p), true
	}
}

// ResolvePath runs rules in order and returns the first candidate that known
// accepts. When no candidate is known the identity-normalized path is kept,
// so the record simply never meets a changed file.
func ResolvePath(raw string, rules []PathRule, known func(string) bool) string {
	fallback := ""
	for i, rule := range rules {
		candidate, ok := rule(raw)
		if !ok {
			continue
		}
		if i == 0 {
			fallback = candidate
		}
		if known(candidate) {
			return candidate
		}
	}
	if fallback == "" {
		return filepath.ToSlash(raw)
	}
	return fallback
}

// ReconcileCoverage resolves every record of every report against the changed
// files and merges records that land on the same path. Source roots declared
// by a report are tried after the configured ones.
func ReconcileCoverage(
	reports []schema.CoverageReport,
	changed map[string]schema.ChangedFile,
	repoRoot string,
	srcRoots []string,
) (map[string]schema.CoverageRecord, MergeStats) {
	known := func(p string) bool {
		_, ok := changed[p]
		return ok
	}

	var resolved []schema.CoverageRecord
	for _, report := range reports {
		rules := BuildPathRules(repoRoot, slices.Concat(srcRoots, report.Sources))
		for _, rec := range report.Records {
			resolved = append(resolved, schema.CoverageRecord{
				Path:  ResolvePath(rec.Path, rules, known),
				Lines: rec.Lines,
			})
		}
	}

	merged, conflicts := MergeRecords(resolved)
	return merged, MergeStats{Records: len(resolved), Paths: len(merged), Conflicts: conflicts}
}
