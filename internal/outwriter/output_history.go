package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRunHistory prints stored runs, newest first, in the configured output format.
// Parquet is served by the history export command instead.
func WriteRunHistory(w io.Writer, runs []schema.RunRecord, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if runs == nil {
			runs = []schema.RunRecord{}
		}
		return writeJSON(w, runs)
	case schema.CSVOut:
		return writeRunHistoryCSV(w, runs, fmtFloat)
	default:
		return writeRunHistoryTable(w, runs, fmtFloat)
	}
}

func writeRunHistoryTable(w io.Writer, runs []schema.RunRecord, fmtFloat func(float64) string) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded yet.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Started", "Duration", "Branch", "Files", "Trackable", "Covered", "Coverage", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(runs))
	for _, r := range runs {
		duration, coverage, label := "-", "-", "-"
		if r.RunDurationMs != nil {
			duration = (time.Duration(*r.RunDurationMs) * time.Millisecond).String()
		}
		if r.PercentCovered != nil {
			coverage = fmtFloat(*r.PercentCovered) + "%"
			label = contract.GetColorLabel(*r.PercentCovered)
		}
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			humanize.Time(r.StartTime),
			duration,
			r.CompareBranch,
			strconv.Itoa(int(r.FilesReported)),
			strconv.Itoa(int(r.TotalTrackable)),
			strconv.Itoa(int(r.TotalCovered)),
			coverage,
			label,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeRunHistoryCSV(w io.Writer, runs []schema.RunRecord, fmtFloat func(float64) string) error {
	header := []string{"run_id", "start_time", "run_duration_ms", "compare_branch", "files_reported", "total_trackable", "total_covered", "percent_covered"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, r := range runs {
			duration, coverage := "", ""
			if r.RunDurationMs != nil {
				duration = strconv.Itoa(int(*r.RunDurationMs))
			}
			if r.PercentCovered != nil {
				coverage = fmtFloat(*r.PercentCovered)
			}
			rec := []string{
				strconv.FormatInt(r.RunID, 10),
				r.StartTime.Format(contract.DateTimeFormat),
				duration,
				r.CompareBranch,
				strconv.Itoa(int(r.FilesReported)),
				strconv.Itoa(int(r.TotalTrackable)),
				strconv.Itoa(int(r.TotalCovered)),
				coverage,
			}
			if err := csvWriter.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
