// Package main is a benchmark for the diffcover CLI. It generates synthetic git
// repositories with Cobertura inputs of increasing size, then times
// `diffcover report` against each one with the decode cache disabled, cold
// and warm. Results are printed as a table and saved as CSV.
//
// Usage: go run ./benchmark [--binary diffcover] [--runs 3] [--timeout 5m]
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// errTimeout marks a run that was killed after exceeding the configured timeout.
var errTimeout = errors.New("run timed out")

// Options controls a benchmark session.
type Options struct {
	Binary  string
	WorkDir string
	Output  string
	Runs    int
	Workers int
	Timeout time.Duration
	Keep    bool
}

// Result is the timing of one scenario.
type Result struct {
	Scenario     string
	Files        int
	ChangedLines int
	Inputs       int
	NoCache      time.Duration // mean over successful runs
	Cold         time.Duration // first sqlite run
	Warm         time.Duration // mean of later sqlite runs
	Failures     int
}

func main() {
	opts := Options{}
	root := &cobra.Command{
		Use:           "benchmark",
		Short:         "Time diffcover report on generated repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts, DefaultScenarios)
		},
	}
	root.Flags().StringVar(&opts.Binary, "binary", "diffcover", "diffcover binary to benchmark")
	root.Flags().StringVar(&opts.WorkDir, "work-dir", "", "directory for generated repositories (default: a temp dir)")
	root.Flags().StringVar(&opts.Output, "output", "", "CSV output path (default: /tmp/diffcover_benchmark_<timestamp>.csv)")
	root.Flags().IntVar(&opts.Runs, "runs", 3, "runs per phase")
	root.Flags().IntVar(&opts.Workers, "workers", runtime.GOMAXPROCS(0), "decode workers passed to diffcover")
	root.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "per-run timeout")
	root.Flags().BoolVar(&opts.Keep, "keep", false, "keep generated repositories")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "benchmark failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, opts Options, scenarios []Scenario) error {
	if opts.Runs < 2 {
		return fmt.Errorf("--runs must be at least 2 to separate cold and warm timings")
	}
	binary, err := exec.LookPath(opts.Binary)
	if err != nil {
		return fmt.Errorf("diffcover binary %q not found: %w", opts.Binary, err)
	}
	opts.Binary = binary

	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.MkdirTemp("", "diffcover-bench-"); err != nil {
			return err
		}
		if !opts.Keep {
			defer func() { _ = os.RemoveAll(workDir) }()
		}
	}

	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		_, _ = fmt.Fprintf(w, "Generating %s (%d files, %d inputs)\n", sc.Name, sc.Files, sc.Inputs)
		fx, err := Generate(ctx, workDir, sc)
		if err != nil {
			return fmt.Errorf("generate %s: %w", sc.Name, err)
		}
		res, err := benchmarkScenario(ctx, w, opts, workDir, sc, fx)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	if err := printResults(w, results); err != nil {
		return err
	}
	out := opts.Output
	if out == "" {
		out = fmt.Sprintf("/tmp/diffcover_benchmark_%s.csv", time.Now().Format("20060102_150405"))
	}
	if err := saveResults(out, results); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Results saved to %s\n", out)
	return nil
}

func benchmarkScenario(ctx context.Context, w io.Writer, opts Options, workDir string, sc Scenario, fx Fixture) (Result, error) {
	res := Result{Scenario: sc.Name, Files: sc.Files, ChangedLines: sc.ChangedLines(), Inputs: sc.Inputs}
	cacheDB := filepath.Join(workDir, sc.Name+"-cache.db")
	if err := os.Remove(cacheDB); err != nil && !errors.Is(err, os.ErrNotExist) {
		return res, err
	}

	phase := func(backend string) []time.Duration {
		var times []time.Duration
		for i := range opts.Runs {
			elapsed, err := runReport(ctx, opts, fx, backend, cacheDB)
			if err != nil {
				_, _ = fmt.Fprintf(w, "  %s run %d (%s): %v\n", sc.Name, i+1, backend, err)
				res.Failures++
				continue
			}
			times = append(times, elapsed)
		}
		return times
	}

	res.NoCache = mean(phase("none"))
	if cached := phase("sqlite"); len(cached) > 0 {
		res.Cold = cached[0]
		res.Warm = mean(cached[1:])
	}
	_, _ = fmt.Fprintf(w, "  %s: no-cache %s, cold %s, warm %s\n", sc.Name, formatDuration(res.NoCache), formatDuration(res.Cold), formatDuration(res.Warm))
	return res, nil
}

// runReport runs one report and returns its wall time. The child process is
// killed when the timeout expires.
func runReport(ctx context.Context, opts Options, fx Fixture, backend, cacheDB string) (time.Duration, error) {
	args := []string{
		"report",
		"--compare-branch", baseBranch,
		"--ignore-staged", "--ignore-unstaged",
		"--output", "json",
		"--workers", strconv.Itoa(opts.Workers),
		"--cache-backend", backend,
	}
	if backend == "sqlite" {
		args = append(args, "--cache-db-connect", cacheDB)
	}
	args = append(args, fx.Coverage...)

	start := time.Now()
	out, err := runTimed(ctx, opts.Timeout, fx.Dir, opts.Binary, args...)
	elapsed := time.Since(start)
	if err != nil {
		return 0, err
	}
	if !validReport(out) {
		return 0, fmt.Errorf("unexpected output: %.200s", out)
	}
	return elapsed, nil
}

// runTimed runs name in dir and returns its stdout. It returns errTimeout when
// the process had to be killed.
func runTimed(ctx context.Context, timeout time.Duration, dir, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	out, err := cmd.Output()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, errTimeout
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s", err, exitErr.Stderr)
		}
		return nil, err
	}
	return out, nil
}

// validReport checks that out is a JSON report with a total block.
func validReport(out []byte) bool {
	return gjson.ValidBytes(out) && gjson.GetBytes(out, "total.total_trackable_changed").Exists()
}

func mean(times []time.Duration) time.Duration {
	if len(times) == 0 {
		return 0
	}
	var sum time.Duration
	for _, t := range times {
		sum += t
	}
	return sum / time.Duration(len(times))
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func printResults(w io.Writer, results []Result) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Scenario", "Files", "Changed Lines", "Inputs", "No Cache", "Cold", "Warm", "Failures"})
	for _, r := range results {
		if err := table.Append([]string{
			r.Scenario,
			strconv.Itoa(r.Files),
			strconv.Itoa(r.ChangedLines),
			strconv.Itoa(r.Inputs),
			formatDuration(r.NoCache),
			formatDuration(r.Cold),
			formatDuration(r.Warm),
			strconv.Itoa(r.Failures),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func saveResults(path string, results []Result) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"scenario", "files", "changed_lines", "inputs", "no_cache_s", "cold_s", "warm_s", "failures"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		record := []string{
			r.Scenario,
			strconv.Itoa(r.Files),
			strconv.Itoa(r.ChangedLines),
			strconv.Itoa(r.Inputs),
			strconv.FormatFloat(r.NoCache.Seconds(), 'f', 3, 64),
			strconv.FormatFloat(r.Cold.Seconds(), 'f', 3, 64),
			strconv.FormatFloat(r.Warm.Seconds(), 'f', 3, 64),
			strconv.Itoa(r.Failures),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
