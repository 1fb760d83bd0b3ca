package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/executor/backend"
	"github.com/sakif/mathcode/internal/server"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lesson server",
	Long: `Start the HTTP server. Lesson pages are at the root URL, JSON endpoints
under /api, instructor login under /auth (only when auth.jwt_secret is set).

Examples:
  mathcode serve
  mathcode serve --port 9090 --backend local`,
	RunE: runServe,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().IntVar(&portFlag, "port", 0, "port to listen on (overrides config)")
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}

	logger := cfg.NewLogger()

	// The server still starts without a backend: pages render and every
	// run answers 503 until the operator fixes docker or python.
	var exec executor.Executor
	b, err := backend.Open(cfg.Executor, logger)
	if err != nil {
		logger.Error("no execution backend, code runs are disabled", slog.String("error", err.Error()))
	} else {
		defer b.Close()
		exec = b
		logger.Info("execution backend ready", slog.String("backend", b.Name()))
	}

	srv, err := server.New(cfg, logger, exec)
	if err != nil {
		return err
	}
	return srv.Start(cmd.Context())
}
