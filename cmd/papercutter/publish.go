package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/encode"
)

var (
	publishEndpoint string
	publishToken    string
	publishOutDir   string
)

var publishCmd = &cobra.Command{
	Use:   "publish <file-or-dir>",
	Short: "Replace embedded Base64 images with uploaded URLs",
	Long: `Upload every Base64-embedded image found in question record files to
an image host and replace the payloads with the returned URLs. Each
distinct payload is uploaded once. Payloads that fail to upload are
left in place.

The auth token can also be set via the PAPERCUTTER_PUBLISH_TOKEN
environment variable.

Examples:
  papercutter publish --endpoint https://img.example.com/upload output/paper.json
  papercutter publish --endpoint https://img.example.com/upload --out-dir published/ output/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if publishEndpoint == "" {
			return errors.New("--endpoint is required")
		}

		token := publishToken
		if token == "" {
			token = os.Getenv("PAPERCUTTER_PUBLISH_TOKEN")
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		uploader := encode.NewUploader(publishEndpoint, token, logger)
		count, err := uploader.PublishPath(args[0], publishOutDir)
		if err != nil {
			return err
		}
		fmt.Printf("published %d record files\n", count)
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishEndpoint, "endpoint", "", "Image host upload URL")
	publishCmd.Flags().StringVar(&publishToken, "token", "", "AI-token auth header value")
	publishCmd.Flags().StringVar(&publishOutDir, "out-dir", "", "Write results here instead of in place")

	rootCmd.AddCommand(publishCmd)
}
