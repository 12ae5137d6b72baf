package algo

import (
	"testing"

	"github.com/huangsam/diffcover/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knownSet(paths ...string) func(string) bool {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(p string) bool {
		_, ok := set[p]
		return ok
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		root, in, want string
	}{
		{"", "./pkg/a.go", "pkg/a.go"},
		{"", "pkg//b/../a.go", "pkg/a.go"},
		{"/repo", "/repo/pkg/a.go", "pkg/a.go"},
		{"/repo/", "/repo/pkg/a.go", "pkg/a.go"},
		{"/repo", "/other/a.go", "/other/a.go"},
		{"/repo", "/repository/a.go", "/repository/a.go"},
		{"/repo", "  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.root, tt.in), "root=%q in=%q", tt.root, tt.in)
	}
}

func TestResolvePathIdentityFirst(t *testing.T) {
	rules := BuildPathRules("/repo", []string{"src/main/java", "src/test/java"})
	require.Len(t, rules, 3)

	known := knownSet("com/acme/App.java", "src/main/java/com/acme/App.java")
	assert.Equal(t, "com/acme/App.java", ResolvePath("com/acme/App.java", rules, known))
}

func TestResolvePathSourceRootOrder(t *testing.T) {
	rules := BuildPathRules("/repo", []string{"src/main/java", "src/test/java"})

	known := knownSet("src/test/java/com/acme/AppTest.java")
	assert.Equal(t, "src/test/java/com/acme/AppTest.java", ResolvePath("com/acme/AppTest.java", rules, known))

	// Both roots match: the first configured root wins.
	both := knownSet("src/main/java/x/Y.java", "src/test/java/x/Y.java")
	assert.Equal(t, "src/main/java/x/Y.java", ResolvePath("x/Y.java", rules, both))

	reversed := BuildPathRules("/repo", []string{"src/test/java", "src/main/java"})
	assert.Equal(t, "src/test/java/x/Y.java", ResolvePath("x/Y.java", reversed, both))
}

func TestResolvePathFallsBackToIdentity(t *testing.T) {
	rules := BuildPathRules("/repo", []string{"src"})
	assert.Equal(t, "lib/util.py", ResolvePath("/repo/lib/util.py", rules, knownSet()))
}

func TestBuildPathRulesSkipsEmptyAndDuplicateRoots(t *testing.T) {
	rules := BuildPathRules("", []string{"", "src", "./src", ".", "lib"})
	assert.Len(t, rules, 3)
}

func TestReconcileCoverage(t *testing.T) {
	changed := map[string]schema.ChangedFile{
		"src/main/java/a/A.java": {Path: "src/main/java/a/A.java", AddedLines: []int{3}},
		"py/pkg/mod.py":          {Path: "py/pkg/mod.py", AddedLines: []int{1}},
	}
	reports := []schema.CoverageReport{
		{
			Format:  schema.JaCoCoFormat,
			Records: []schema.CoverageRecord{{Path: "a/A.java", Lines: schema.LineStatuses{3: schema.Uncovered}}},
		},
		{
			Format:  schema.CoberturaFormat,
			Sources: []string{"/repo/py"},
			Records: []schema.CoverageRecord{
				{Path: "pkg/mod.py", Lines: schema.LineStatuses{1: schema.Covered}},
				{Path: "a/A.java", Lines: schema.LineStatuses{3: schema.Covered}},
			},
		},
	}

	records, stats := ReconcileCoverage(reports, changed, "/repo", []string{"src/main/java"})
	assert.Equal(t, schema.Covered, records["src/main/java/a/A.java"].Lines[3])
	assert.Equal(t, schema.Covered, records["py/pkg/mod.py"].Lines[1])
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 2, stats.Paths)
	assert.Equal(t, 1, stats.Conflicts)
}
