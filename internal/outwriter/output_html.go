package outwriter

import (
	"bufio"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
)

// snippetContext is the number of lines shown around each violation.
const snippetContext = 2

var (
	//go:embed templates/report.html.tmpl
	reportTemplateText string

	//go:embed templates/style.css
	reportCSS string

	reportTemplate = template.Must(template.New("report").Parse(reportTemplateText))
)

type htmlReport struct {
	Report       *schema.DiffCoverReport
	Files        []htmlFile
	TotalLines   string
	MissingLines string
	TotalPercent string
	CSSHref      string
	InlineCSS    template.CSS
}

type htmlFile struct {
	Path       string
	Trackable  int
	Covered    int
	Percent    string
	LabelClass string
	Missing    string
	Snippets   []htmlSnippet
}

type htmlSnippet struct {
	Lines []htmlLine
}

type htmlLine struct {
	Number    int
	Text      string
	Violation bool
}

// createHTMLFile opens the --html-report destination.
var createHTMLFile = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// WriteHTMLReportFile writes the HTML report to cfg.HTMLReport, in addition to the console report.
func WriteHTMLReportFile(report *schema.DiffCoverReport, cfg *contract.Config) error {
	file, err := createHTMLFile(cfg.HTMLReport)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", cfg.HTMLReport, err)
	}

	if err := renderHTML(file, report, cfg, cfg.HTMLReport); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.HTMLReport, err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote HTML report to %s\n", cfg.HTMLReport)
	return nil
}

// writeHTMLOutput handles --output html.
func writeHTMLOutput(report *schema.DiffCoverReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return renderHTML(w, report, cfg, cfg.OutputFile)
	}, "Wrote HTML")
}

// renderHTML executes the report template. htmlPath locates the page so an
// external stylesheet can be linked relative to it.
func renderHTML(w io.Writer, report *schema.DiffCoverReport, cfg *contract.Config, htmlPath string) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	data := htmlReport{
		Report:       report,
		TotalLines:   pluralLines(report.Total.TotalTrackableChanged),
		MissingLines: pluralLines(report.Total.ViolationCount()),
		TotalPercent: fmtFloat(report.Total.PercentCovered),
		InlineCSS:    template.CSS(reportCSS),
	}

	if cfg.ExternalCSSFile != "" {
		href, err := writeExternalCSS(cfg.ExternalCSSFile, htmlPath)
		if err != nil {
			return err
		}
		data.CSSHref = href
	}

	for _, f := range report.Files {
		file := htmlFile{
			Path:       f.Path,
			Trackable:  f.TrackableChangedCount,
			Covered:    f.CoveredChangedCount,
			Percent:    fmtFloat(f.PercentCovered),
			LabelClass: "label-" + strings.ToLower(contract.GetPlainLabel(f.PercentCovered)),
			Missing:    schema.FormatLineRanges(f.ViolationLines),
		}
		if len(f.ViolationLines) > 0 {
			snippets, err := loadSnippets(filepath.Join(report.RepoPath, filepath.FromSlash(f.Path)), f.ViolationLines)
			if err != nil {
				contract.LogWarn(fmt.Sprintf("Cannot show source for %s", f.Path), err)
			}
			file.Snippets = snippets
		}
		data.Files = append(data.Files, file)
	}

	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

// writeExternalCSS writes the stylesheet and returns its path relative to the HTML page.
func writeExternalCSS(cssPath, htmlPath string) (string, error) {
	if err := os.WriteFile(cssPath, []byte(reportCSS), 0o644); err != nil {
		return "", fmt.Errorf("failed to write CSS file %s: %w", cssPath, err)
	}

	absCSS, err := filepath.Abs(cssPath)
	if err != nil {
		return "", err
	}
	htmlDir := "."
	if htmlPath != "" {
		htmlDir = filepath.Dir(htmlPath)
	}
	absDir, err := filepath.Abs(htmlDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absDir, absCSS)
	if err != nil {
		return filepath.ToSlash(absCSS), nil
	}
	return filepath.ToSlash(rel), nil
}

// loadSnippets reads the source file and returns the violation lines with
// snippetContext lines around them. Nearby violations share one snippet.
func loadSnippets(path string, violations []int) ([]htmlSnippet, error) {
	source, err := readLines(path)
	if err != nil {
		return nil, err
	}

	isViolation := make(map[int]bool, len(violations))
	for _, line := range violations {
		isViolation[line] = true
	}

	var snippets []htmlSnippet
	for _, r := range schema.GroupLineRanges(violations, 2*snippetContext) {
		start := max(1, r.Start-snippetContext)
		end := min(len(source), r.End+snippetContext)
		if start > end {
			continue
		}
		var snippet htmlSnippet
		for n := start; n <= end; n++ {
			snippet.Lines = append(snippet.Lines, htmlLine{Number: n, Text: source[n-1], Violation: isViolation[n]})
		}
		snippets = append(snippets, snippet)
	}
	return snippets, nil
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
