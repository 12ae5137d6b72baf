package algo

import (
	"testing"

	"github.com/huangsam/diffcover/schema"
	"github.com/stretchr/testify/assert"
)

func TestMergeLineStatus(t *testing.T) {
	assert.Equal(t, schema.Covered, MergeLineStatus(schema.Uncovered, schema.Covered))
	assert.Equal(t, schema.Covered, MergeLineStatus(schema.Covered, schema.Uncovered))
	assert.Equal(t, schema.Covered, MergeLineStatus(schema.Covered, 0))
	assert.Equal(t, schema.Uncovered, MergeLineStatus(0, schema.Uncovered))
	assert.Equal(t, schema.Uncovered, MergeLineStatus(schema.Uncovered, schema.Uncovered))
	assert.Equal(t, schema.LineStatus(0), MergeLineStatus(0, 0))
}

func TestMergeRecordsCoveredWins(t *testing.T) {
	in1 := schema.CoverageRecord{Path: "c.py", Lines: schema.LineStatuses{20: schema.Uncovered}}
	in2 := schema.CoverageRecord{Path: "c.py", Lines: schema.LineStatuses{20: schema.Covered}}

	merged, conflicts := MergeRecords([]schema.CoverageRecord{in1, in2})
	assert.Equal(t, schema.Covered, merged["c.py"].Lines[20])
	assert.Equal(t, 1, conflicts)

	// Inputs stay untouched.
	assert.Equal(t, schema.Uncovered, in1.Lines[20])
}

func TestMergeRecordsOrderIndependent(t *testing.T) {
	a := schema.CoverageRecord{Path: "m.go", Lines: schema.LineStatuses{1: schema.Covered, 2: schema.Uncovered, 3: schema.Uncovered}}
	b := schema.CoverageRecord{Path: "m.go", Lines: schema.LineStatuses{2: schema.Covered, 4: schema.Uncovered}}
	c := schema.CoverageRecord{Path: "m.go", Lines: schema.LineStatuses{3: schema.Uncovered, 5: schema.Covered}}
	other := schema.CoverageRecord{Path: "n.go", Lines: schema.LineStatuses{1: schema.Uncovered}}

	ab, _ := MergeRecords([]schema.CoverageRecord{a, b, c, other})
	ba, _ := MergeRecords([]schema.CoverageRecord{other, c, b, a})
	assert.Equal(t, ab, ba)

	// Merging an already merged record with the rest gives the same answer.
	first, _ := MergeRecords([]schema.CoverageRecord{a, b})
	nested, _ := MergeRecords([]schema.CoverageRecord{first["m.go"], c, other})
	assert.Equal(t, ab, nested)

	want := schema.LineStatuses{1: schema.Covered, 2: schema.Covered, 3: schema.Uncovered, 4: schema.Uncovered, 5: schema.Covered}
	assert.Equal(t, want, ab["m.go"].Lines)
}

func TestMergeRecordsNeverDowngrades(t *testing.T) {
	covered := schema.CoverageRecord{Path: "p", Lines: schema.LineStatuses{7: schema.Covered}}
	for _, other := range []schema.CoverageRecord{
		{Path: "p", Lines: schema.LineStatuses{7: schema.Uncovered}},
		{Path: "p", Lines: schema.LineStatuses{}},
		{Path: "p", Lines: schema.LineStatuses{8: schema.Uncovered}},
	} {
		merged, _ := MergeRecords([]schema.CoverageRecord{covered, other})
		assert.Equal(t, schema.Covered, merged["p"].Lines[7])
		merged, _ = MergeRecords([]schema.CoverageRecord{other, covered})
		assert.Equal(t, schema.Covered, merged["p"].Lines[7])
	}
}

func TestMergeInto(t *testing.T) {
	dst := schema.LineStatuses{1: schema.Uncovered, 2: schema.Covered}
	conflicts := MergeInto(dst, schema.LineStatuses{1: schema.Covered, 2: schema.Covered, 3: schema.Uncovered})
	assert.Equal(t, []int{1}, conflicts)
	assert.Equal(t, schema.LineStatuses{1: schema.Covered, 2: schema.Covered, 3: schema.Uncovered}, dst)
}

func TestMergeRecordsCountsEachConflictOnce(t *testing.T) {
	records := []schema.CoverageRecord{
		{Path: "p", Lines: schema.LineStatuses{1: schema.Uncovered, 2: schema.Covered}},
		{Path: "p", Lines: schema.LineStatuses{1: schema.Covered, 2: schema.Uncovered}},
		{Path: "p", Lines: schema.LineStatuses{1: schema.Uncovered}},
	}
	merged, conflicts := MergeRecords(records)
	assert.Equal(t, 2, conflicts)
	assert.Equal(t, schema.LineStatuses{1: schema.Covered, 2: schema.Covered}, merged["p"].Lines)
	assert.Len(t, records[0].Lines, 2, "inputs are not mutated")
	assert.Equal(t, schema.Uncovered, records[0].Lines[1])
}

func TestSortedPaths(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedPaths(map[string]int{"c": 1, "a": 2, "b": 3}))
	assert.Empty(t, SortedPaths(map[string]int{}))
}
