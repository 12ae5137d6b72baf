package algo

import (
	"slices"

	"github.com/huangsam/diffcover/schema"
)

// PercentCovered is covered/trackable as a percentage. Zero trackable lines
// count as fully covered.
func PercentCovered(covered, trackable int) float64 {
	if trackable <= 0 {
		return 100.0
	}
	return float64(covered) / float64(trackable) * 100.0
}

// Correlate intersects the lines added to a file with the lines its coverage
// record tracks. Added lines the record does not track are ignored entirely.
// Each added line is counted once even if AddedLines repeats it.
func Correlate(changed schema.ChangedFile, record schema.CoverageRecord) schema.FileCoverageResult {
	result := schema.FileCoverageResult{Path: changed.Path, ViolationLines: []int{}}
	added := slices.Compact(slices.Sorted(slices.Values(changed.AddedLines)))
	for _, line := range added {
		status, tracked := record.Lines[line]
		if !tracked {
			continue
		}
		result.TrackableChangedCount++
		if status == schema.Covered {
			result.CoveredChangedCount++
		} else {
			result.ViolationLines = append(result.ViolationLines, line)
		}
	}
	result.PercentCovered = PercentCovered(result.CoveredChangedCount, result.TrackableChangedCount)
	return result
}

// CorrelateAll correlates every changed file that has a coverage record and
// returns the results sorted by path. Deleted files and files without a record
// are left out.
func CorrelateAll(changed map[string]schema.ChangedFile, records map[string]schema.CoverageRecord) []schema.FileCoverageResult {
	results := make([]schema.FileCoverageResult, 0, len(changed))
	for _, p := range SortedPaths(changed) {
		cf := changed[p]
		if cf.IsDeleted {
			continue
		}
		rec, ok := records[p]
		if !ok {
			continue
		}
		results = append(results, Correlate(cf, rec))
	}
	return results
}

// Uncorrelated lists changed files that have no coverage record, sorted by path.
func Uncorrelated(changed map[string]schema.ChangedFile, records map[string]schema.CoverageRecord) []string {
	var missing []string
	for _, p := range SortedPaths(changed) {
		if changed[p].IsDeleted {
			continue
		}
		if _, ok := records[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// Aggregate sums counts across results before dividing, so every changed line
// carries the same weight regardless of which file it is in.
func Aggregate(results []schema.FileCoverageResult) schema.TotalResult {
	var total schema.TotalResult
	for _, r := range results {
		total.TotalTrackableChanged += r.TrackableChangedCount
		total.TotalCoveredChanged += r.CoveredChangedCount
	}
	total.PercentCovered = PercentCovered(total.TotalCoveredChanged, total.TotalTrackableChanged)
	return total
}
