package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/ingest"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and parse new documents as they arrive",
	Long: `Watch a directory for new images and PDFs and run each file through
the pipeline as soon as it has finished writing. Each image gets its
question record JSON written next to it; PDFs produce output in the
same directory.

Example:
  papercutter watch ~/scans`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir := args[0]

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		pipe, _, closeCalls, err := buildPipeline(logger)
		if err != nil {
			return err
		}
		defer closeCalls()

		handler := func(path string) {
			logger.Info("processing new file", "path", path)
			var runErr error
			if ingest.IsImageFile(path) {
				_, runErr = pipe.RunPerImage(ctx, []string{path})
			} else {
				_, runErr = pipe.Run(ctx, []string{path}, dir)
			}
			if runErr != nil {
				logger.Error("failed to process file", "path", path, "error", runErr)
				return
			}
			logger.Info("file processed", "path", path)
		}

		watcher := ingest.NewWatcher(dir, handler, logger)
		logger.Info("watching for documents", "dir", dir)

		err = watcher.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
