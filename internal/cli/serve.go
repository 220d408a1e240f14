package cli

import (
	"hybridhunter/internal/pipeline"
	"hybridhunter/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing the search pipeline.

Available endpoints:
- POST /search: JSON {intent, resume_text, email} or multipart with a resume file
- POST /plan: Turn an intent into a search plan
- GET /health: Health check endpoint
- GET /stats: Circuit breaker and rate limiting info

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Flags win over config values only when given
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetString("port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}

	om, shutdown, err := startObservability(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	components, err := pipeline.Build(cfg, logger, om.Metrics())
	if err != nil {
		return err
	}
	defer func() { _ = components.Close() }()

	serverCfg := server.ConfigFromApp(cfg, Version)
	serverCfg.Pipeline = components.Runner
	serverCfg.Extractor = components.Extractor
	serverCfg.Stats = components.Stats
	serverCfg.Models = components.Models
	serverCfg.Observability = om

	return server.NewServer(cfg, serverCfg, logger).Start(cmd.Context())
}
