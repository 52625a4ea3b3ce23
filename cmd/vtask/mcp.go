package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/voicetask/internal/app"
	"github.com/fyrsmithlabs/voicetask/internal/logging"
	"github.com/fyrsmithlabs/voicetask/internal/mcp"
	"github.com/fyrsmithlabs/voicetask/internal/telemetry"
)

func newMCPCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the extraction tools over MCP stdio",
		Long: `Run an MCP server on stdin/stdout exposing analyze_task and
process_input. Tasks are processed locally and stored with the configured
memory or sqlite store. Logs go to stderr.

Examples:
  vtask mcp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd.Context(), opts)
		},
	}
}

func runMCP(ctx context.Context, opts *globalOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	logger, err := logging.NewLoggerWithWriter(logCfg, tel.LoggerProvider(), os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	pipeline, err := app.Build(ctx, cfg, logger, tel)
	if err != nil {
		return err
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Warn(context.Background(), "pipeline close failed", zap.Error(err))
		}
	}()

	srv, err := mcp.NewServer(&mcp.Config{
		Name:    "voicetask",
		Version: version,
		UserID:  mcp.DefaultUserID,
		Logger:  logger,
		Metrics: mcp.NewMetrics(tel.Meter("voicetask/mcp"), logger),
	}, pipeline.Processor)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
