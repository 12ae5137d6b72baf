package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogDiffCoverHeader prints a short description of the run to stderr.
func LogDiffCoverHeader(cfg *Config, diffDescription string) {
	repoName := filepath.Base(cfg.RepoPath)
	if repoName == "" || repoName == "." {
		repoName = "current"
	}

	// Line 1: The repo and the diffs being read
	_, _ = fmt.Fprintf(os.Stderr, "🔎 Repo: %s (Diff: %s)\n", repoName, diffDescription)

	// Line 2: The coverage inputs
	_, _ = fmt.Fprintf(os.Stderr, "📄 Coverage: %s (Format: %s)\n", strings.Join(cfg.CoverageFiles, ", "), cfg.Format)

	if len(cfg.SrcRoots) > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "📁 Source roots: %s\n", strings.Join(cfg.SrcRoots, ", "))
	}
}
