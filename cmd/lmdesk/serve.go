package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lmdesk server",
	Long: `Start the lmdesk HTTP server.

When backend.autostart is enabled and no Ollama server answers at the
configured URL, an Ollama container is started and stopped again on
shutdown (via Ctrl+C or SIGTERM).

Examples:
  lmdesk serve                    # Start on default port 8080
  lmdesk serve --port 3000        # Start on custom port
  lmdesk serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		h, err := getHome()
		if err != nil {
			return err
		}

		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		cfgMgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
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
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
