package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vreme-ai/vreme/internal/api"
	"github.com/vreme-ai/vreme/internal/mcp"
	"github.com/vreme-ai/vreme/internal/tracker"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

Configure in your assistant with:

  {
    "mcpServers": {
      "vreme": { "command": "vreme", "args": ["mcp"] }
    }
  }

Available tools: query_time, query_prayer_times,
check_activity_appropriateness, get_temporal_context,
get_cognitive_state, analyze_work_patterns, predict_availability`,
	RunE: func(cmd *cobra.Command, args []string) error {
		global, behavior := newTrackers()
		bursts := tracker.NewBurstTracker(global, burstThreshold())
		client := api.NewClient(viper.GetString("api.base_url"))

		srv := mcp.NewServer(client, global, behavior, bursts, viper.GetString("tracking.project"))
		// stdout carries the MCP transport; diagnostics go to stderr only.
		diagLogger().Debug("serving MCP on stdio", "api", client.BaseURL())
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
