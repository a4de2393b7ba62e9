package main

import (
	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Papercutter server via HTTP.

These commands require a running server (papercutter serve).
Use --server to specify a custom server URL.

Examples:
  papercutter api health                 # Check server health
  papercutter api status                 # Detailed server status
  papercutter api parse-docs page1.png   # Upload files for parsing
  papercutter api llmcalls --failed      # Inspect failed LLM calls`,
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8000", "Server URL",
	)

	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ParseDocsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.MetricsSummaryEndpoint{}).Command(getServerURL))

	// LLM call history with usage as a subcommand
	llmcallsCmd := (&endpoints.ListLLMCallsEndpoint{}).Command(getServerURL)
	llmcallsCmd.AddCommand((&endpoints.LLMCallUsageEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand(llmcallsCmd)

	rootCmd.AddCommand(apiCmd)
}
