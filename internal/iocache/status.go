package iocache

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/diffcover/schema"
)

const statusTimeLayout = "2006-01-02 15:04:05"

// PrintCacheStatus prints decode cache status information.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) {
	_, _ = fmt.Fprintf(w, "Cache Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Entries: %s\n", humanize.Comma(int64(status.TotalEntries)))
	if status.TotalEntries > 0 {
		_, _ = fmt.Fprintf(w, "Last Entry: %s\n", formatStatusTime(status.LastEntryTime))
		_, _ = fmt.Fprintf(w, "Oldest Entry: %s\n", formatStatusTime(status.OldestEntryTime))
	}
	_, _ = fmt.Fprintf(w, "Table Size: %s\n", humanize.Bytes(nonNegative(status.TableSizeBytes)))
}

// PrintHistoryStatus prints run history status information.
func PrintHistoryStatus(w io.Writer, status schema.HistoryStatus) {
	_, _ = fmt.Fprintf(w, "History Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %s\n", humanize.Comma(int64(status.TotalRuns)))
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", formatStatusTime(status.LastRunTime))
		if status.LastRunPercentage != nil {
			_, _ = fmt.Fprintf(w, "Last Run Coverage: %.1f%%\n", *status.LastRunPercentage)
		}
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", formatStatusTime(status.OldestRunTime))
	}
	_, _ = fmt.Fprintf(w, "Total File Results: %s\n", humanize.Comma(int64(status.TotalFileResults)))

	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", table, humanize.Bytes(nonNegative(status.TableSizes[table])))
	}
}

// formatStatusTime shows an absolute time followed by a relative one, e.g. "2025-01-02 03:04:05 (3 hours ago)".
func formatStatusTime(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.Local().Format(statusTimeLayout), humanize.Time(t))
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
