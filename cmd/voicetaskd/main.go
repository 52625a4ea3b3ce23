// Voicetaskd is the task extraction daemon.
//
// It serves POST /api/v1/nlp/process-input, turning a free-form task
// description into a structured draft and handing it to the configured store.
//
// Configuration is loaded from ~/.config/voicetask/config.yaml and VOICETASK_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start the daemon
//	voicetaskd
//
//	# Serve the NATS task store that a "nats" driver daemon hands off to
//	VOICETASK_STORE_SQLITE_PATH=/var/lib/voicetask/tasks.db voicetaskd responder
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/voicetask/internal/app"
	"github.com/fyrsmithlabs/voicetask/internal/auth"
	"github.com/fyrsmithlabs/voicetask/internal/config"
	api "github.com/fyrsmithlabs/voicetask/internal/http"
	"github.com/fyrsmithlabs/voicetask/internal/logging"
	"github.com/fyrsmithlabs/voicetask/internal/store"
	"github.com/fyrsmithlabs/voicetask/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/voicetask/config.yaml)")
	flag.Parse()
	args := flag.Args()

	runFn := run
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		case "responder":
			runFn = runResponder
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  voicetaskd             Start the HTTP daemon\n")
			fmt.Fprintf(os.Stderr, "  voicetaskd responder   Serve the task store over NATS\n")
			fmt.Fprintf(os.Stderr, "  voicetaskd version     Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	cfg, err := config.LoadWithFile(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if err := runFn(ctx, cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Shutdown complete")
}

func printVersion() {
	fmt.Printf("voicetaskd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// observability holds the logger and telemetry shared by both modes.
type observability struct {
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
}

func initObservability(ctx context.Context, cfg *config.Config) (*observability, error) {
	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &observability{logger: logger, telemetry: tel}, nil
}

func (o *observability) Close() {
	_ = o.logger.Sync()
	if err := o.telemetry.Shutdown(context.Background()); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}

// run starts the HTTP daemon and blocks until ctx is cancelled.
//
//  1. Initializes telemetry and the logger
//  2. Builds the pipeline (gazetteer, store, throttle, processor)
//  3. Starts the HTTP server
//  4. Shuts down gracefully on cancellation
func run(ctx context.Context, cfg *config.Config) error {
	obs, err := initObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer obs.Close()
	logger := obs.logger

	logger.Info(ctx, "starting voicetaskd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("telemetry", obs.telemetry.IsEnabled()))

	pipeline, err := app.Build(ctx, cfg, logger, obs.telemetry)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Warn(context.Background(), "pipeline close failed", zap.Error(err))
		}
	}()

	tokens := auth.NewStaticTokens(cfg.Auth.Tokens)
	if tokens.Len() == 0 {
		logger.Warn(ctx, "no auth tokens configured, every request will be rejected")
	}

	srvCfg := &api.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		RequestTimeout: cfg.Server.RequestTimeout,
		Version:        version,
	}
	if cfg.RateLimit.Enabled {
		srvCfg.RateLimitRPS = cfg.RateLimit.RPS
		srvCfg.RateLimitBurst = cfg.RateLimit.Burst
	}

	srv, err := api.NewServer(api.Deps{
		Processor: pipeline.Processor,
		Tokens:    tokens,
		Logger:    logger,
		Telemetry: obs.telemetry,
	}, srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// runResponder serves a local task store to NATS sinks until ctx is
// cancelled. The backing store is sqlite when store.sqlite_path is set and
// memory otherwise.
func runResponder(ctx context.Context, cfg *config.Config) error {
	obs, err := initObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer obs.Close()
	logger := obs.logger

	if cfg.Store.NATSURL == "" {
		return errors.New("store.nats_url is required for the responder")
	}

	backing := cfg.Store
	backing.Driver = config.StoreMemory
	if backing.SQLitePath != "" {
		backing.Driver = config.StoreSQLite
	}
	st, err := store.OpenStore(backing)
	if err != nil {
		return fmt.Errorf("failed to open backing store: %w", err)
	}
	defer st.Close()

	nc, err := store.ConnectNATS(cfg.Store.NATSURL)
	if err != nil {
		return err
	}
	defer nc.Close()

	responder, err := store.ServeNATS(nc, cfg.Store.NATSSubject, st, logger)
	if err != nil {
		return fmt.Errorf("failed to serve store: %w", err)
	}
	logger.Info(ctx, "serving task store over nats",
		zap.String("subject", cfg.Store.NATSSubject+".*"),
		zap.String("backing", backing.Driver))

	<-ctx.Done()

	if err := responder.Close(); err != nil {
		logger.Warn(context.Background(), "unsubscribe failed", zap.Error(err))
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = nc.FlushWithContext(drainCtx)
	return nil
}
