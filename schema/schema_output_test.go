package schema_test

import (
	"testing"

	"github.com/huangsam/diffcover/schema"
	"github.com/stretchr/testify/assert"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		percent  float64
		expected string
	}{
		{"Full", 100.0, "Full"},
		{"High Upper", 99.9, "High"},
		{"High Lower", 80.0, "High"},
		{"Moderate Upper", 79.9, "Moderate"},
		{"Moderate Lower", 50.0, "Moderate"},
		{"Low Upper", 49.9, "Low"},
		{"Zero", 0.0, "Low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, schema.GetPlainLabel(tt.percent))
		})
	}
}

func TestFormatLineRanges(t *testing.T) {
	tests := []struct {
		name  string
		lines []int
		want  string
	}{
		{"empty", nil, ""},
		{"single", []int{7}, "7"},
		{"run", []int{3, 4, 5}, "3-5"},
		{"mixed", []int{11, 14, 15, 16, 20}, "11,14-16,20"},
		{"pairs", []int{1, 2, 4, 5}, "1-2,4-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schema.FormatLineRanges(tt.lines))
		})
	}
}

func TestGroupLineRanges(t *testing.T) {
	assert.Empty(t, schema.GroupLineRanges(nil, 2))
	assert.Equal(t, []schema.LineRange{{Start: 1, End: 3}, {Start: 10, End: 10}},
		schema.GroupLineRanges([]int{1, 3, 10}, 1))
	assert.Equal(t, []schema.LineRange{{Start: 1, End: 1}, {Start: 3, End: 3}},
		schema.GroupLineRanges([]int{1, 3}, 0))
}

func TestSortWorstFirst(t *testing.T) {
	results := []schema.FileCoverageResult{
		{Path: "b.go", PercentCovered: 50, ViolationLines: []int{1}},
		{Path: "a.go", PercentCovered: 50, ViolationLines: []int{1}},
		{Path: "c.go", PercentCovered: 50, ViolationLines: []int{1, 2}},
		{Path: "d.go", PercentCovered: 10, ViolationLines: []int{1}},
	}
	schema.SortWorstFirst(results)

	var paths []string
	for _, r := range results {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"d.go", "c.go", "a.go", "b.go"}, paths)
}
