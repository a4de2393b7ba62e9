package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/api"
	"github.com/daixun-ai/papercutter-vl/internal/config"
	"github.com/daixun-ai/papercutter-vl/internal/home"
	"github.com/daixun-ai/papercutter-vl/internal/llmcall"
	"github.com/daixun-ai/papercutter-vl/internal/metrics"
	"github.com/daixun-ai/papercutter-vl/internal/pipeline"
	"github.com/daixun-ai/papercutter-vl/internal/prompts"
	"github.com/daixun-ai/papercutter-vl/internal/prompts/questions"
	"github.com/daixun-ai/papercutter-vl/internal/providers"
)

var (
	parseOutDir      string
	parsePerImage    bool
	parseKeepAssets  bool
	parseOCRProvider string
	parseLLMProvider string
	parseModel       string
	parseWorkers     int
	parseDPI         int
)

// buildPipeline assembles a pipeline from config and flags.
// The returned cleanup func flushes the LLM call log.
func buildPipeline(logger *slog.Logger) (*pipeline.Pipeline, *metrics.Recorder, func(), error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, nil, nil, err
	}

	cfgMgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg := cfgMgr.Get()

	registry := providers.NewRegistry()
	registry.SetLogger(logger)
	registry.Reload(cfg.ToProviderRegistryConfig())

	resolver := prompts.NewResolver(h.PromptsPath(), logger)
	questions.RegisterPrompts(resolver)

	calls := llmcall.NewRecorder(h.LLMCallsPath(), logger)
	metricsRec := metrics.NewRecorder()

	opts := pipeline.Options{
		OCRProvider: cfg.Defaults.OCRProvider,
		LLMProvider: cfg.Defaults.LLMProvider,
		MaxWorkers:  cfg.Defaults.MaxWorkers,
		RenderDPI:   cfg.Defaults.RenderDPI,
		KeepAssets:  parseKeepAssets,
		Resolver:    resolver,
		Calls:       calls,
		Metrics:     metricsRec,
		Logger:      logger,
	}
	if parseOCRProvider != "" {
		opts.OCRProvider = parseOCRProvider
	}
	if parseLLMProvider != "" {
		opts.LLMProvider = parseLLMProvider
	}
	if parseModel != "" {
		opts.LLMModel = parseModel
	}
	if parseWorkers > 0 {
		opts.MaxWorkers = parseWorkers
	}
	if parseDPI > 0 {
		opts.RenderDPI = parseDPI
	}

	return pipeline.New(h, registry, opts), metricsRec, calls.Close, nil
}

var parseCmd = &cobra.Command{
	Use:   "parse <file-or-dir>...",
	Short: "Parse exam documents into question records",
	Long: `Parse scanned exam documents (images and/or PDFs) into structured
question records.

In the default mode all inputs are treated as pages of one document and
produce a single markdown file plus one question record JSON. With
--per-image each image is processed independently and its record JSON is
written next to the image.

Examples:
  papercutter parse scans/                        # Whole directory as one document
  papercutter parse paper-1.pdf paper-2.pdf       # Multiple PDFs, pages in order
  papercutter parse --per-image scans/            # One record file per image
  papercutter parse --out results/ scan.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		pipe, metricsRec, closeCalls, err := buildPipeline(logger)
		if err != nil {
			return err
		}
		defer closeCalls()

		if parsePerImage {
			results, err := pipe.RunPerImage(ctx, args)
			if err != nil {
				return err
			}
			if err := api.Output(results); err != nil {
				return err
			}
			return outputCost(metricsRec)
		}

		outDir := parseOutDir
		if outDir == "" {
			outDir = "."
		}

		result, err := pipe.Run(ctx, args, outDir)
		if err != nil {
			return err
		}
		if err := api.Output(result); err != nil {
			return err
		}
		return outputCost(metricsRec)
	},
}

func outputCost(rec *metrics.Recorder) error {
	summary := rec.GetSummary(metrics.Filter{})
	if summary.Count == 0 {
		return nil
	}
	fmt.Fprintf(os.Stderr, "calls: %d  tokens: %d  cost: $%.4f\n",
		summary.Count, summary.TotalTokens, summary.TotalCostUSD)
	return nil
}

func init() {
	parseCmd.Flags().StringVar(&parseOutDir, "out", "", "Output directory (default: current directory)")
	parseCmd.Flags().BoolVar(&parsePerImage, "per-image", false, "Process each image independently")
	parseCmd.Flags().BoolVar(&parseKeepAssets, "keep-assets", false, "Keep cropped figure files next to the markdown")
	parseCmd.Flags().StringVar(&parseOCRProvider, "ocr-provider", "", "OCR provider name (default from config)")
	parseCmd.Flags().StringVar(&parseLLMProvider, "llm-provider", "", "LLM provider name (default from config)")
	parseCmd.Flags().StringVar(&parseModel, "model", "", "LLM model override")
	parseCmd.Flags().IntVar(&parseWorkers, "workers", 0, "Concurrent OCR workers (default from config)")
	parseCmd.Flags().IntVar(&parseDPI, "dpi", 0, "PDF render DPI (default from config)")

	rootCmd.AddCommand(parseCmd)
}
