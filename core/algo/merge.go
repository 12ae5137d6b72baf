// Package algo is the diff coverage engine: path reconciliation, coverage merge
// and per-file correlation. Everything here is pure and performs no I/O.
package algo

import (
	"slices"

	"github.com/huangsam/diffcover/schema"
)

// MergeLineStatus combines two observations of the same line. Covered wins,
// so the result is Uncovered only when neither side is Covered. A zero status
// means the side did not track the line.
func MergeLineStatus(a, b schema.LineStatus) schema.LineStatus {
	if a == schema.Covered || b == schema.Covered {
		return schema.Covered
	}
	if a == schema.Uncovered || b == schema.Uncovered {
		return schema.Uncovered
	}
	return 0
}

// MergeInto folds src into dst using MergeLineStatus and returns, in ascending
// order, the lines whose tracked status differed between the two.
func MergeInto(dst, src schema.LineStatuses) []int {
	var conflicts []int
	for line, status := range src {
		if prev, ok := dst[line]; ok && prev != status {
			conflicts = append(conflicts, line)
		}
		dst[line] = MergeLineStatus(dst[line], status)
	}
	slices.Sort(conflicts)
	return conflicts
}

// MergeRecords reduces records into one record per path. The reduction is
// commutative and associative, so decode order never changes the result.
// Inputs are not mutated. The second value counts distinct (path, line) pairs
// on which the inputs disagreed.
func MergeRecords(records []schema.CoverageRecord) (map[string]schema.CoverageRecord, int) {
	type lineKey struct {
		path string
		line int
	}
	merged := make(map[string]schema.CoverageRecord, len(records))
	conflicted := make(map[lineKey]struct{})

	for _, rec := range records {
		dst, ok := merged[rec.Path]
		if !ok {
			dst = schema.CoverageRecord{Path: rec.Path, Lines: make(schema.LineStatuses, len(rec.Lines))}
			merged[rec.Path] = dst
		}
		for _, line := range MergeInto(dst.Lines, rec.Lines) {
			conflicted[lineKey{rec.Path, line}] = struct{}{}
		}
	}
	return merged, len(conflicted)
}

// SortedPaths returns the keys of records in ascending order.
func SortedPaths[V any](m map[string]V) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}
