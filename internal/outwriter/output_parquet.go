package outwriter

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/diffcover/internal/parquet"
	"github.com/huangsam/diffcover/schema"
)

// writeReportParquet writes one row per file result. Parquet is binary, so stdout is not an option.
func writeReportParquet(report *schema.DiffCoverReport, outputFile string) error {
	if outputFile == "" {
		return errors.New("parquet output requires --output-file")
	}
	rows, err := parquet.ConvertReport(report)
	if err != nil {
		return err
	}
	if err := parquet.WriteFileResultsParquet(rows, outputFile); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", outputFile)
	return nil
}
