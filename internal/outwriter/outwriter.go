// Package outwriter renders diff coverage reports and run history.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
	"golang.org/x/term"
)

// WriteDiffCoverReport outputs a report, dispatching based on the output format configured.
func WriteDiffCoverReport(report *schema.DiffCoverReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportCSV(w, report, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.MarkdownOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportMarkdown(w, report, fmtFloat, intFmt)
		}, "Wrote Markdown"); err != nil {
			return fmt.Errorf("error writing Markdown output: %w", err)
		}
	case schema.HTMLOut:
		if err := writeHTMLOutput(report, cfg); err != nil {
			return fmt.Errorf("error writing HTML output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeReportParquet(report, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportTable(w, report, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

// Path column bounds for table output.
const (
	defaultTermWidth = 80 // Conservative default for narrow terminals and CI
	minPathWidth     = 15
	maxPathWidth     = 70
)

// getMaxTablePathWidth calculates the maximum width for file paths in table
// output. baseWidth is the space taken by every other column, borders included.
func getMaxTablePathWidth(cfg *contract.Config, baseWidth int) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = defaultTermWidth
		} else {
			termWidth = detectedWidth
		}
	}

	available := termWidth - baseWidth
	return max(minPathWidth, min(available, maxPathWidth))
}
