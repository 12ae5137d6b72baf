package cmd

import (
	"github.com/huangsam/diffcover/core"
	"github.com/spf13/cobra"
)

// reportCmd prints the diff coverage report.
var reportCmd = &cobra.Command{
	Use:   "report <coverage-file>...",
	Short: "Show test coverage for the lines changed against a branch.",
	Long: `Correlate one or more coverage reports with the changes since the compare branch.

Only lines added or modified in the diff are counted. For each changed file that
appears in the coverage data, the report lists:
- How many changed lines the coverage tool tracks
- How many of those are covered
- The uncovered changed lines (violations) as ranges

The diff is <compare-branch>...HEAD plus staged and unstaged changes unless they
are ignored. When several coverage reports are given, a line covered in any of
them counts as covered.

Supported formats: Cobertura XML, JaCoCo XML, Go coverprofile, coverage.py JSON
and gcovr JSON. The format is detected from the content unless --format is set.

Examples:
  # Report against origin/master (default)
  diffcover report coverage.xml

  # Merge Java and Python coverage and compare against main
  diffcover report --compare-branch origin/main build/jacoco.xml coverage.json

  # Fail the build below 80%
  diffcover report --fail-under 80 coverage.out

  # Write an HTML report with a separate stylesheet
  diffcover report coverage.xml --html-report diff.html --external-css-file diff.css

  # Export the per-file results to Markdown for a PR comment
  diffcover report coverage.xml --output markdown --output-file diff-cover.md`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDiffCoverReport(rootCtx, cfg, cacheManager); err != nil {
			exitOnRunError("Cannot build diff coverage report", err)
		}
	},
}
