package schema

import (
	"sort"
	"strconv"
	"strings"
)

// GetPlainLabel returns a plain text label for a coverage percentage.
func GetPlainLabel(percent float64) string {
	switch {
	case percent >= 100:
		return "Full"
	case percent >= 80:
		return "High"
	case percent >= 50:
		return "Moderate"
	default:
		return "Low"
	}
}

// FormatLineRanges compresses ascending line numbers into ranges like "11,14-16".
func FormatLineRanges(lines []int) string {
	if len(lines) == 0 {
		return ""
	}
	var sb strings.Builder
	start, prev := lines[0], lines[0]
	flush := func() {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(start))
		if prev != start {
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(prev))
		}
	}
	for _, line := range lines[1:] {
		if line == prev+1 {
			prev = line
			continue
		}
		flush()
		start, prev = line, line
	}
	flush()
	return sb.String()
}

// LineRange is an inclusive span of line numbers.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// GroupLineRanges groups ascending line numbers into spans, merging lines
// that are at most gap lines apart.
func GroupLineRanges(lines []int, gap int) []LineRange {
	var ranges []LineRange
	for _, line := range lines {
		if n := len(ranges); n > 0 && line-ranges[n-1].End <= gap+1 {
			ranges[n-1].End = line
			continue
		}
		ranges = append(ranges, LineRange{Start: line, End: line})
	}
	return ranges
}

// SortWorstFirst orders results by ascending coverage, then by most violations, then by path.
func SortWorstFirst(results []FileCoverageResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.PercentCovered != b.PercentCovered {
			return a.PercentCovered < b.PercentCovered
		}
		if len(a.ViolationLines) != len(b.ViolationLines) {
			return len(a.ViolationLines) > len(b.ViolationLines)
		}
		return a.Path < b.Path
	})
}
