package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/internal/iocache"
	"github.com/huangsam/diffcover/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const committedDiff = `diff --git a/src/calc.py b/src/calc.py
index 1111111..2222222 100644
--- a/src/calc.py
+++ b/src/calc.py
@@ -1,0 +2,4 @@ def add(a, b):
+    x = a
+    y = b
+    z = x + y
+    return z
diff --git a/docs/readme.md b/docs/readme.md
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/docs/readme.md
@@ -0,0 +1 @@
+# Calc
`

const calcCoveragePy = `{
  "files": {
    "src/calc.py": {"executed_lines": [1, 2, 3], "missing_lines": [4]}
  }
}`

// calcCobertura covers line 4, which calcCoveragePy reports as missing.
const calcCobertura = `<?xml version="1.0" ?>
<coverage>
  <packages><package><classes>
    <class filename="src/calc.py"><lines><line number="4" hits="1"/></lines></class>
  </classes></package></packages>
</coverage>`

func writeCoverage(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func newTestConfig(t *testing.T, coverageFiles ...string) *contract.Config {
	t.Helper()
	return &contract.Config{
		RepoPath:       t.TempDir(),
		CoverageFiles:  coverageFiles,
		CompareBranch:  "origin/main",
		IgnoreStaged:   true,
		IgnoreUnstaged: true,
		Format:         schema.AutoFormat,
		Workers:        2,
		Precision:      1,
		ResultLimit:    contract.DefaultResultLimit,
		Output:         schema.JSONOut,
	}
}

func newTestBuilder(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, diff string, diffErr error) (*DiffCoverBuilder, *contract.MockGitClient) {
	client := &contract.MockGitClient{}
	client.On("GetCommittedDiff", mock.Anything, cfg.RepoPath, cfg.CompareBranch).Return([]byte(diff), diffErr)
	builder := NewDiffCoverBuilder(WithSuppressHeader(ctx), cfg, mgr)
	builder.client = client
	return builder, client
}

func TestDiffCoverBuilderSingleInput(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(t, writeCoverage(t, dir, "coverage.json", calcCoveragePy))

	builder, client := newTestBuilder(context.Background(), cfg, nil, committedDiff, nil)
	report, err := buildReport(builder)
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	file := report.Files[0]
	assert.Equal(t, "src/calc.py", file.Path)
	assert.Equal(t, 3, file.TrackableChangedCount) // line 5 is not tracked
	assert.Equal(t, 2, file.CoveredChangedCount)
	assert.Equal(t, []int{4}, file.ViolationLines)
	assert.InDelta(t, 66.666, file.PercentCovered, 0.01)

	assert.Equal(t, []string{"docs/readme.md"}, report.NoCoverageFiles)
	assert.Equal(t, 3, report.Total.TotalTrackableChanged)
	assert.Equal(t, 2, report.Total.TotalCoveredChanged)
	assert.Zero(t, report.MergeConflicts)
	assert.Equal(t, "origin/main...HEAD", report.DiffDescription)
	assert.Equal(t, cfg.CoverageFiles, report.CoverageInputs)
	assert.False(t, report.GeneratedAt.IsZero())
	client.AssertExpectations(t)
}

func TestDiffCoverBuilderCoveredWinsAcrossInputs(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(t,
		writeCoverage(t, dir, "coverage.json", calcCoveragePy),
		writeCoverage(t, dir, "coverage.xml", calcCobertura),
	)

	builder, _ := newTestBuilder(context.Background(), cfg, nil, committedDiff, nil)
	report, err := buildReport(builder)
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	assert.Empty(t, report.Files[0].ViolationLines)
	assert.Equal(t, 1, report.MergeConflicts)
	assert.InDelta(t, 100.0, report.Total.PercentCovered, 1e-9)
}

func TestDiffCoverBuilderEmptyDiff(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(t, writeCoverage(t, dir, "coverage.json", calcCoveragePy))

	builder, _ := newTestBuilder(context.Background(), cfg, nil, "", nil)
	report, err := buildReport(builder)
	require.NoError(t, err)

	assert.Empty(t, report.Files)
	assert.Empty(t, report.NoCoverageFiles)
	assert.NotNil(t, report.NoCoverageFiles)
	assert.InDelta(t, 100.0, report.Total.PercentCovered, 1e-9, "no trackable lines is vacuously covered")
}

func TestDiffCoverBuilderGitFailure(t *testing.T) {
	cfg := newTestConfig(t, "unused.xml")

	builder, _ := newTestBuilder(context.Background(), cfg, nil, "", errors.New("unknown revision"))
	_, err := buildReport(builder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to collect changes against "origin/main"`)
}

func TestDiffCoverBuilderBadCoverage(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(t, writeCoverage(t, dir, "lcov.info", "TN:\nSF:src/calc.py\n"))

	builder, _ := newTestBuilder(context.Background(), cfg, nil, committedDiff, nil)
	_, err := buildReport(builder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load coverage")
}

func TestDiffCoverBuilderUsesCoverageStore(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(t, writeCoverage(t, dir, "coverage.json", calcCoveragePy))

	store := &iocache.MockCacheStore{}
	store.On("Get", mock.AnythingOfType("string")).Return(nil, 0, int64(0), errors.New("miss"))
	store.On("Set", mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int"), mock.AnythingOfType("int64")).Return(nil)
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetCoverageStore").Return(store)

	builder, _ := newTestBuilder(context.Background(), cfg, mgr, committedDiff, nil)
	_, err := buildReport(builder)
	require.NoError(t, err)

	store.AssertNumberOfCalls(t, "Get", 1)
	store.AssertNumberOfCalls(t, "Set", 1)
	mgr.AssertExpectations(t)
}
