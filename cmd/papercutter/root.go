package main

import (
	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/api"
	"github.com/daixun-ai/papercutter-vl/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "papercutter",
	Short: "Exam paper digitization pipeline with vision OCR and LLM extraction",
	Long: `Papercutter turns scanned exam papers (images or PDFs) into structured
question records.

The pipeline includes:
  - PDF page rendering and image normalization
  - Per-page vision OCR to markdown
  - Cross-page markdown merging
  - Schema-constrained LLM question extraction
  - Base64 image embedding in the output records`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.papercutter/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "papercutter home directory (default: ~/.papercutter)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
