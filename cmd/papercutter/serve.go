package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/config"
	"github.com/daixun-ai/papercutter-vl/internal/home"
	"github.com/daixun-ai/papercutter-vl/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Papercutter server",
	Long: `Start the Papercutter HTTP server.

The server provides:
  - POST /parse-docs - Upload page images/PDFs and get extracted question records
  - GET  /health     - Basic server health check
  - GET  /status     - Detailed status including registered providers

Configuration is hot-reloaded when the config file changes.

Examples:
  papercutter serve                  # Start on the configured port (default 8000)
  papercutter serve --port 3000      # Start on custom port
  papercutter serve --host 0.0.0.0   # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()

		// Flags override the config file
		host := serveHost
		port := servePort
		if host == "" {
			host = cfgMgr.Get().Server.Host
		}
		if port == "" {
			port = strconv.Itoa(cfgMgr.Get().Server.Port)
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
