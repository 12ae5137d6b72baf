package cmd

import (
	"github.com/huangsam/diffcover/core"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check <coverage-file>...",
	Short: "Enforce a diff coverage threshold for CI/CD pipelines (fails build on violations)",
	Long: `Compute diff coverage and enforce the --fail-under threshold.

Designed for CI/CD integration. Prints a short summary with the files that have the
most uncovered changed lines and exits with status 1 when the total diff coverage is
below --fail-under. A diff with no trackable lines counts as 100% covered.

Use cases:
- Pull request gates - block merges that add untested code
- Quality enforcement - keep new code covered without touching legacy files

Examples:
  # Require 80% coverage on changed lines
  diffcover check --fail-under 80 coverage.xml

  # Only look at committed changes and list up to 10 files
  diffcover check --ignore-staged --ignore-unstaged --limit 10 coverage.out`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDiffCoverCheck(rootCtx, cfg, cacheManager); err != nil {
			exitOnRunError("Diff coverage check failed", err)
		}
	},
}
