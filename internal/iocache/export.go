package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/internal/parquet"
)

// ExecuteHistoryExport writes every stored run and file result to Parquet files
// named <outputFile>.runs.parquet and <outputFile>.file_results.parquet.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history tracking is not enabled. Set --history-backend to export runs")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total file results: %d\n", status.TotalFileResults)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	fileResults, err := store.GetAllFileResults()
	if err != nil {
		return fmt.Errorf("failed to retrieve file results: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	parquetResults := parquet.ConvertFileResultRecords(fileResults)
	resultsFile := outputFile + ".file_results.parquet"
	if err := parquet.WriteFileResultsParquet(parquetResults, resultsFile); err != nil {
		return fmt.Errorf("failed to write file results: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d file results to: %s\n", len(parquetResults), resultsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be read with DuckDB, Pandas (via pyarrow) or Apache Spark.")
	return nil
}
