package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huangsam/diffcover/core"
	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// configFor applies the request arguments on top of a copy of the base config.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()

	files, err := request.RequireStringSlice("coverage_files")
	if err != nil {
		return nil, err
	}
	cfg.CoverageFiles = files

	if p := request.GetString("repo_path", ""); p != "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid repo_path %q: %w", p, err)
		}
		cfg.RepoPath = abs
	}
	if b := strings.TrimSpace(request.GetString("compare_branch", "")); b != "" {
		if strings.HasPrefix(b, "-") {
			return nil, fmt.Errorf("invalid compare branch %q", b)
		}
		cfg.CompareBranch = b
	}
	if roots := request.GetStringSlice("src_roots", nil); roots != nil {
		cfg.SrcRoots = roots
	}
	if f := request.GetString("format", ""); f != "" {
		cfg.Format = schema.CoverageFormat(strings.ToLower(f))
	}
	cfg.IgnoreStaged = request.GetBool("ignore_staged", cfg.IgnoreStaged)
	cfg.IgnoreUnstaged = request.GetBool("ignore_unstaged", cfg.IgnoreUnstaged)
	cfg.FailUnder = request.GetFloat("fail_under", cfg.FailUnder)

	if err := contract.RevalidateCoverage(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (h *toolHandler) handleGetDiffCoverage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	report, err := core.GetDiffCoverReport(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diff coverage failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleCheckDiffCoverage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	result, err := core.GetCheckResult(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diff coverage check failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
