// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// diffParams are shared by every tool that builds a diff coverage report.
func diffParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithArray("coverage_files",
			mcp.Description("Coverage reports to correlate with the diff (Cobertura, JaCoCo, Go coverprofile, coverage.py JSON or gcovr JSON)."),
			mcp.WithStringItems(),
			mcp.Required(),
		),
		mcp.WithString("compare_branch", mcp.Description("Branch to diff against. Defaults to the configured compare branch.")),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository (defaults to current directory if not specified).")),
		mcp.WithArray("src_roots", mcp.Description("Source roots tried in order when coverage paths do not match diff paths."), mcp.WithStringItems()),
		mcp.WithString("format", mcp.Description("Coverage format. Defaults to 'auto'."), mcp.Enum("auto", "cobertura", "jacoco", "gocover", "coveragepy", "gcovr")),
		mcp.WithBoolean("ignore_staged", mcp.Description("Ignore staged changes.")),
		mcp.WithBoolean("ignore_unstaged", mcp.Description("Ignore unstaged changes.")),
	}
}

// NewMCPServer initializes and configures the diffcover MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Diff Coverage Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_diff_coverage ---
	s.AddTool(mcp.NewTool("get_diff_coverage",
		append([]mcp.ToolOption{
			mcp.WithDescription("Report test coverage restricted to the lines changed against a branch."),
		}, diffParams()...)...,
	), h.handleGetDiffCoverage)

	// --- 2. Tool: check_diff_coverage ---
	s.AddTool(mcp.NewTool("check_diff_coverage",
		append([]mcp.ToolOption{
			mcp.WithDescription("Check diff coverage against a fail-under threshold and list the files with uncovered changed lines."),
			mcp.WithNumber("fail_under", mcp.Description("Minimum diff coverage percentage for the check to pass."), mcp.Min(0), mcp.Max(100)),
		}, diffParams()...)...,
	), h.handleCheckDiffCoverage)

	return s
}

// StartMCPServer starts the diffcover MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
