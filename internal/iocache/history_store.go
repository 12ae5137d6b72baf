package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
)

// Table names for run history.
const (
	runsTable        = "diffcover_runs"
	fileResultsTable = "diffcover_file_results"
)

// historyTables lists the history tables in drop order.
var historyTables = []string{fileResultsTable, runsTable}

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	connStr    string
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore opens the history database and brings its schema to the latest migration.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, driverName, err := openDatabase(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
		connStr:    connStr,
	}, nil
}

func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// table returns the quoted name of a history table.
func (hs *HistoryStoreImpl) table(name string) string {
	return quoteTableName(name, hs.backend)
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (hs *HistoryStoreImpl) rebind(query string) string {
	if hs.backend != schema.PostgreSQLBackend {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, compareBranch string, configParams map[string]any) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	// Serialize config params to JSON
	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, compare_branch, config_params) VALUES ($1, $2, $3) RETURNING run_id`, hs.table(runsTable))
		err = hs.db.QueryRow(query, startTime, compareBranch, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, compare_branch, config_params) VALUES (?, ?, ?)`, hs.table(runsTable))
		var result sql.Result
		result, err = hs.db.Exec(query, formatTime(startTime, hs.backend), compareBranch, string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// RecordFileResult stores the diff coverage of one file for a run.
func (hs *HistoryStoreImpl) RecordFileResult(runID int64, result schema.FileCoverageResult) error {
	if hs.disabled() {
		return nil
	}

	query := hs.rebind(fmt.Sprintf(`
		INSERT INTO %s (run_id, file_path, recorded_at, trackable_lines, covered_lines, percent_covered, violation_lines)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, hs.table(fileResultsTable)))
	_, err := hs.db.Exec(query,
		runID, result.Path, formatTime(time.Now(), hs.backend),
		result.TrackableChangedCount, result.CoveredChangedCount, result.PercentCovered,
		schema.FormatLineRanges(result.ViolationLines),
	)
	if err != nil {
		return fmt.Errorf("failed to insert file result for %s: %w", result.Path, err)
	}
	return nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, summary schema.RunSummary) error {
	if hs.disabled() {
		return nil
	}

	// First, get the start_time to calculate duration
	var startTime dbTime
	query := hs.rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, hs.table(runsTable)))
	if err := hs.db.QueryRow(query, runID).Scan(&startTime); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := summary.EndTime.Sub(startTime.Time).Milliseconds()

	update := hs.rebind(fmt.Sprintf(`
		UPDATE %s SET end_time = ?, run_duration_ms = ?, files_reported = ?,
		    total_trackable = ?, total_covered = ?, percent_covered = ?
		WHERE run_id = ?
	`, hs.table(runsTable)))
	_, err := hs.db.Exec(update,
		formatTime(summary.EndTime, hs.backend), durationMs, summary.FilesReported,
		summary.TotalTrackable, summary.TotalCovered, summary.PercentCovered, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", hs.table(runsTable))
	if err := hs.db.QueryRow(countQuery).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastTime dbTime
		lastQuery := fmt.Sprintf("SELECT run_id, start_time, percent_covered FROM %s ORDER BY run_id DESC LIMIT 1", hs.table(runsTable))
		if err := hs.db.QueryRow(lastQuery).Scan(&status.LastRunID, &lastTime, &status.LastRunPercentage); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = lastTime.Time

		var oldestTime dbTime
		oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", hs.table(runsTable))
		if err := hs.db.QueryRow(oldestQuery).Scan(&oldestTime); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldestTime.Time
	}

	resultsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", hs.table(fileResultsTable))
	if err := hs.db.QueryRow(resultsQuery).Scan(&status.TotalFileResults); err != nil {
		return status, fmt.Errorf("failed to get total file results: %w", err)
	}

	status.TableSizes[runsTable] = estimateTableSize(hs.db, hs.backend, hs.connStr, runsTable, status.TotalRuns)
	status.TableSizes[fileResultsTable] = estimateTableSize(hs.db, hs.backend, hs.connStr, fileResultsTable, status.TotalFileResults)
	return status, nil
}

const runColumns = "run_id, start_time, end_time, run_duration_ms, compare_branch, files_reported, total_trackable, total_covered, percent_covered, config_params"

// GetRecentRuns returns up to limit runs, newest first.
func (hs *HistoryStoreImpl) GetRecentRuns(limit int) ([]schema.RunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0 (received %d)", limit)
	}
	query := hs.rebind(fmt.Sprintf("SELECT %s FROM %s ORDER BY run_id DESC LIMIT ?", runColumns, hs.table(runsTable)))
	return hs.queryRuns(query, limit)
}

// GetAllRuns returns every run, oldest first.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY run_id", runColumns, hs.table(runsTable))
	return hs.queryRuns(query)
}

func (hs *HistoryStoreImpl) queryRuns(query string, args ...any) ([]schema.RunRecord, error) {
	rows, err := hs.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var start dbTime
		var end nullDBTime
		if err := rows.Scan(&record.RunID, &start, &end, &record.RunDurationMs, &record.CompareBranch,
			&record.FilesReported, &record.TotalTrackable, &record.TotalCovered,
			&record.PercentCovered, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.StartTime = start.Time
		if end.Valid {
			record.EndTime = &end.Time
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllFileResults returns every recorded file result ordered by run and path.
func (hs *HistoryStoreImpl) GetAllFileResults() ([]schema.FileResultRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, file_path, recorded_at, trackable_lines, covered_lines, percent_covered, violation_lines
		FROM %s ORDER BY run_id, file_path`, hs.table(fileResultsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query file results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FileResultRecord
	for rows.Next() {
		var record schema.FileResultRecord
		var recordedAt dbTime
		if err := rows.Scan(&record.RunID, &record.FilePath, &recordedAt, &record.TrackableLines,
			&record.CoveredLines, &record.PercentCovered, &record.ViolationLines); err != nil {
			return nil, fmt.Errorf("failed to scan file result: %w", err)
		}
		record.RecordedAt = recordedAt.Time
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file results: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
// SQLite has no datetime type, so times are stored as RFC 3339 text.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t
	}
}

// mysqlTimeLayout is what MySQL returns for DATETIME(6) without parseTime=true.
const mysqlTimeLayout = "2006-01-02 15:04:05.999999"

// dbTime scans a timestamp column regardless of how the driver returns it.
type dbTime struct {
	time.Time
}

// Scan implements sql.Scanner.
func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into a timestamp", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, mysqlTimeLayout} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("failed to parse timestamp %q", s)
}

// nullDBTime is a dbTime that may be NULL.
type nullDBTime struct {
	dbTime
	Valid bool
}

// Scan implements sql.Scanner.
func (t *nullDBTime) Scan(src any) error {
	if src == nil {
		t.Valid = false
		return nil
	}
	t.Valid = true
	return t.dbTime.Scan(src)
}
