package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// diffArgs keeps diff output stable regardless of user git config.
var diffArgs = []string{"diff", "--no-color", "--no-ext-diff", "-U0"}

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout output.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s. If this is not a Git repository, verify the path or run 'git init'", repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetRepoHash implements the GitClient interface.
func (c *LocalGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetCommittedDiff implements the GitClient interface.
// The three-dot range diffs HEAD against the merge base, so commits that
// landed on compareBranch after the branch point are not counted.
func (c *LocalGitClient) GetCommittedDiff(ctx context.Context, repoPath string, compareBranch string) ([]byte, error) {
	args := append(append([]string{}, diffArgs...), compareBranch+"...HEAD")
	out, err := c.Run(ctx, repoPath, args...)
	if err != nil {
		return nil, fmt.Errorf("could not diff against %q: %w", compareBranch, err)
	}
	return out, nil
}

// GetStagedDiff implements the GitClient interface.
func (c *LocalGitClient) GetStagedDiff(ctx context.Context, repoPath string) ([]byte, error) {
	args := append(append([]string{}, diffArgs...), "--cached")
	return c.Run(ctx, repoPath, args...)
}

// GetUnstagedDiff implements the GitClient interface.
func (c *LocalGitClient) GetUnstagedDiff(ctx context.Context, repoPath string) ([]byte, error) {
	return c.Run(ctx, repoPath, diffArgs...)
}
