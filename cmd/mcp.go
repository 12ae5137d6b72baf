package cmd

import (
	"github.com/huangsam/diffcover/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the diffcover MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents compute diff coverage
via the get_diff_coverage and check_diff_coverage tools.

Flags and config act as defaults for every tool call. Coverage files are passed
per call, so none are required here.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
