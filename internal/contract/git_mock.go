package contract

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGitClient is a testify mock for the GitClient interface.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	mockArgs := []any{ctx, repoPath}
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// GetRepoHash implements the GitClient interface.
func (m *MockGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	return ret.String(0), ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	return ret.String(0), ret.Error(1)
}

// GetCommittedDiff implements the GitClient interface.
func (m *MockGitClient) GetCommittedDiff(ctx context.Context, repoPath string, compareBranch string) ([]byte, error) {
	ret := m.Called(ctx, repoPath, compareBranch)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// GetStagedDiff implements the GitClient interface.
func (m *MockGitClient) GetStagedDiff(ctx context.Context, repoPath string) ([]byte, error) {
	ret := m.Called(ctx, repoPath)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// GetUnstagedDiff implements the GitClient interface.
func (m *MockGitClient) GetUnstagedDiff(ctx context.Context, repoPath string) ([]byte, error) {
	ret := m.Called(ctx, repoPath)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}
