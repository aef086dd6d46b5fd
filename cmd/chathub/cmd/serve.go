package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/chathub/internal/app"
	"github.com/nfrund/chathub/internal/config"
	"github.com/nfrund/chathub/internal/logging"
)

var (
	serveEnvFile string
	serveAddr    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat hub",
	Long: `Run the chat hub: the WebSocket endpoint at /ws, the browser client at /,
health, stats and Prometheus metrics, and the announcement API.

Configuration comes from the environment, optionally seeded from an env file.
While the server runs, edits to LOG_LEVEL in that file take effect immediately.

Examples:
  chathub serve
  chathub serve --addr :9000
  chathub serve --env-file /etc/chathub.env`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveEnvFile)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	level := logging.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := os.Stat(serveEnvFile); err == nil {
		err := config.Watch(ctx, serveEnvFile, func(values map[string]string) {
			if v, ok := values["LOG_LEVEL"]; ok {
				level.Set(logging.ParseLevel(v))
				slog.Info("Log level updated", "level", v)
			}
		})
		if err != nil {
			slog.Warn("Config reload disabled", "error", err)
		}
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	return a.Run(ctx)
}

func init() {
	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", ".env", "env file to load and watch")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides SERVER_ADDR")
	rootCmd.AddCommand(serveCmd)
}
