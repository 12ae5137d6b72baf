package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// noCoverageMessage is printed when no changed line is trackable.
const noCoverageMessage = "No lines with coverage information in this diff."

// reportTableBaseWidth covers Trackable, Covered, Coverage, Label and Missing plus borders.
const reportTableBaseWidth = 70

// writeReportTable generates and writes the human-readable report.
func writeReportTable(w io.Writer, report *schema.DiffCoverReport, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Diff Coverage\nDiff: %s\n", report.DiffDescription); err != nil {
		return err
	}

	if len(report.Files) == 0 {
		if _, err := fmt.Fprintln(w, noCoverageMessage); err != nil {
			return err
		}
	} else {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Path", "Trackable", "Covered", "Coverage", "Label", "Missing"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})

		pathWidth := getMaxTablePathWidth(cfg, reportTableBaseWidth)
		data := make([][]string, 0, len(report.Files))
		for _, f := range report.Files {
			data = append(data, []string{
				contract.TruncatePath(f.Path, pathWidth),
				fmt.Sprintf(intFmt, f.TrackableChangedCount),
				fmt.Sprintf(intFmt, f.CoveredChangedCount),
				fmtFloat(f.PercentCovered) + "%",
				contract.GetColorLabel(f.PercentCovered),
				schema.FormatLineRanges(f.ViolationLines),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	total := report.Total
	if _, err := fmt.Fprintf(w, "Total:    %s\nMissing:  %s\nCoverage: %s%%\n",
		pluralLines(total.TotalTrackableChanged),
		pluralLines(total.ViolationCount()),
		fmtFloat(total.PercentCovered)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Report completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeReportCSV writes one row per file result.
func writeReportCSV(w io.Writer, report *schema.DiffCoverReport, fmtFloat func(float64) string, intFmt string) error {
	header := []string{"path", "trackable_changed", "covered_changed", "percent_covered", "label", "violation_lines"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, f := range report.Files {
			rec := []string{
				f.Path,
				fmt.Sprintf(intFmt, f.TrackableChangedCount),
				fmt.Sprintf(intFmt, f.CoveredChangedCount),
				fmtFloat(f.PercentCovered),
				contract.GetPlainLabel(f.PercentCovered),
				schema.FormatLineRanges(f.ViolationLines),
			}
			if err := csvWriter.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeReportMarkdown writes a GitHub flavored summary, suitable for PR comments.
func writeReportMarkdown(w io.Writer, report *schema.DiffCoverReport, fmtFloat func(float64) string, intFmt string) error {
	var sb strings.Builder
	sb.WriteString("# Diff Coverage\n")
	fmt.Fprintf(&sb, "## Diff: %s\n\n", report.DiffDescription)

	if len(report.Files) == 0 {
		sb.WriteString(noCoverageMessage + "\n")
	} else {
		sb.WriteString("| Path | Trackable | Covered | Coverage | Missing |\n")
		sb.WriteString("|:-----|----------:|--------:|---------:|:--------|\n")
		for _, f := range report.Files {
			fmt.Fprintf(&sb, "| %s | "+intFmt+" | "+intFmt+" | %s%% | %s |\n",
				escapeMarkdownCell(f.Path),
				f.TrackableChangedCount,
				f.CoveredChangedCount,
				fmtFloat(f.PercentCovered),
				schema.FormatLineRanges(f.ViolationLines))
		}
	}

	total := report.Total
	sb.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&sb, "- **Total**: %s\n", pluralLines(total.TotalTrackableChanged))
	fmt.Fprintf(&sb, "- **Missing**: %s\n", pluralLines(total.ViolationCount()))
	fmt.Fprintf(&sb, "- **Coverage**: %s%%\n", fmtFloat(total.PercentCovered))

	_, err := io.WriteString(w, sb.String())
	return err
}

func escapeMarkdownCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
