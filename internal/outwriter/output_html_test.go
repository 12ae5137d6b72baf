package outwriter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/diffcover/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSourceFile creates a file whose line n reads "line n".
func writeSourceFile(t *testing.T, path string, n int) {
	t.Helper()
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
}

func TestLoadSnippets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calc.py")
	writeSourceFile(t, path, 20)

	snippets, err := loadSnippets(path, []int{4, 5, 6, 9, 19})
	require.NoError(t, err)
	require.Len(t, snippets, 2)

	// 4..9 are close enough to share one snippet, padded by two lines each side
	first := snippets[0]
	assert.Equal(t, 2, first.Lines[0].Number)
	assert.Equal(t, 11, first.Lines[len(first.Lines)-1].Number)
	assert.True(t, first.Lines[2].Violation)
	assert.False(t, first.Lines[5].Violation)
	assert.Equal(t, "line 4", first.Lines[2].Text)

	// Clamped to the end of the file
	second := snippets[1]
	assert.Equal(t, 17, second.Lines[0].Number)
	assert.Equal(t, 20, second.Lines[len(second.Lines)-1].Number)
}

func TestLoadSnippetsMissingFile(t *testing.T) {
	_, err := loadSnippets(filepath.Join(t.TempDir(), "gone.py"), []int{1})
	assert.Error(t, err)
}

func TestRenderHTMLInlineCSS(t *testing.T) {
	repo := t.TempDir()
	writeSourceFile(t, filepath.Join(repo, "src", "calc.py"), 12)
	report := sampleReport(repo)
	report.Files[0].Path = "src/calc.py"

	var buf bytes.Buffer
	require.NoError(t, renderHTML(&buf, report, testConfig(schema.HTMLOut), ""))

	out := buf.String()
	assert.Contains(t, out, "<style>")
	assert.Contains(t, out, "table.snippet")
	assert.Contains(t, out, "<td>src/calc.py</td>")
	assert.Contains(t, out, `<span class="label-moderate">50.0%</span>`)
	assert.Contains(t, out, `<tr class="hll"><td class="lineno">4</td><td>line 4</td></tr>`)
	assert.Contains(t, out, "<li><b>Coverage</b>: 60.0%</li>")
}

func TestRenderHTMLEscapesPaths(t *testing.T) {
	report := sampleReport(t.TempDir())
	report.Files = []schema.FileCoverageResult{{Path: "<script>.py", TrackableChangedCount: 1, CoveredChangedCount: 1, PercentCovered: 100}}

	var buf bytes.Buffer
	require.NoError(t, renderHTML(&buf, report, testConfig(schema.HTMLOut), ""))
	assert.NotContains(t, buf.String(), "<script>.py")
	assert.Contains(t, buf.String(), "&lt;script&gt;.py")
}

func TestWriteHTMLReportFileExternalCSS(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(schema.TextOut)
	cfg.HTMLReport = filepath.Join(dir, "reports", "diff.html")
	cfg.ExternalCSSFile = filepath.Join(dir, "assets", "style.css")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.HTMLReport), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.ExternalCSSFile), 0o755))

	require.NoError(t, WriteHTMLReportFile(sampleReport(dir), cfg))

	page, err := os.ReadFile(cfg.HTMLReport)
	require.NoError(t, err)
	assert.Contains(t, string(page), `<link rel="stylesheet" href="../assets/style.css">`)
	assert.NotContains(t, string(page), "<style>")

	css, err := os.ReadFile(cfg.ExternalCSSFile)
	require.NoError(t, err)
	assert.Equal(t, reportCSS, string(css))
}

// closeFailingFile accepts writes but fails on Close, like a full disk flushing late.
type closeFailingFile struct {
	bytes.Buffer
	closed bool
}

func (f *closeFailingFile) Close() error {
	f.closed = true
	return errors.New("no space left on device")
}

func TestWriteHTMLReportFileReportsCloseError(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(schema.TextOut)
	cfg.HTMLReport = filepath.Join(dir, "diff.html")

	file := &closeFailingFile{}
	orig := createHTMLFile
	createHTMLFile = func(string) (io.WriteCloser, error) { return file, nil }
	t.Cleanup(func() { createHTMLFile = orig })

	err := WriteHTMLReportFile(sampleReport(dir), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no space left on device")
	assert.Contains(t, err.Error(), cfg.HTMLReport)
	assert.True(t, file.closed)
	assert.Contains(t, file.String(), "<html")
}

func TestRenderHTMLEmptyReport(t *testing.T) {
	report := &schema.DiffCoverReport{DiffDescription: "origin/main...HEAD", Total: schema.TotalResult{PercentCovered: 100}}

	var buf bytes.Buffer
	require.NoError(t, renderHTML(&buf, report, testConfig(schema.HTMLOut), ""))
	assert.Contains(t, buf.String(), noCoverageMessage)
	assert.NotContains(t, buf.String(), `class="summary"`)
}
