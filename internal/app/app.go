// Package app wires configuration into a running extraction pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/voicetask/internal/config"
	"github.com/fyrsmithlabs/voicetask/internal/extraction"
	"github.com/fyrsmithlabs/voicetask/internal/logging"
	"github.com/fyrsmithlabs/voicetask/internal/sanitize"
	"github.com/fyrsmithlabs/voicetask/internal/service"
	"github.com/fyrsmithlabs/voicetask/internal/store"
	"github.com/fyrsmithlabs/voicetask/internal/telemetry"
	"github.com/fyrsmithlabs/voicetask/internal/throttle"
)

// pruneInterval is how often idle throttle gates are dropped.
const pruneInterval = time.Minute

// App holds the pipeline and the resources behind it.
type App struct {
	Processor *service.Processor
	Throttle  *throttle.Registry
	Sink      store.SinkCloser

	watcher *extraction.GazetteerWatcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// Build loads the gazetteer, opens the configured sink and constructs the
// processor. Close releases everything Build opened.
func Build(ctx context.Context, cfg *config.Config, logger *logging.Logger, tel *telemetry.Telemetry) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	a := &App{cancel: cancel, done: make(chan struct{})}

	var gazetteer extraction.GazetteerProvider = extraction.DefaultGazetteer()
	switch path := cfg.Extraction.GazetteerPath; {
	case path == "":
	case cfg.Extraction.WatchGazetteer:
		w, err := extraction.WatchGazetteer(ctx, path, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("watching gazetteer: %w", err)
		}
		a.watcher = w
		gazetteer = w
	default:
		g, err := extraction.LoadGazetteer(path)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("loading gazetteer: %w", err)
		}
		gazetteer = g
	}

	sink, err := store.Open(cfg.Store)
	if err != nil {
		a.closeWatcher()
		cancel()
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	a.Sink = sink

	analyzer := extraction.NewAnalyzer(
		extraction.WithGazetteer(gazetteer),
		extraction.WithLogger(logger),
	)

	a.Throttle = throttle.NewRegistry(cfg.Throttle.Window)
	opts := []service.Option{
		service.WithRules(sanitize.InputRules{
			MinLength: cfg.Validation.MinLength,
			MaxLength: cfg.Validation.MaxLength,
		}),
		service.WithThrottle(a.Throttle),
		service.WithSink(sink),
		service.WithLogger(logger),
	}
	if tel != nil {
		opts = append(opts, service.WithTracer(tel.Tracer("voicetask/service")))
	}
	a.Processor, err = service.NewProcessor(analyzer, opts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	logger.Info(ctx, "pipeline initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Int("gazetteer_size", gazetteer.Current().Size()),
		zap.Bool("gazetteer_watch", a.watcher != nil),
		zap.Duration("throttle_window", cfg.Throttle.Window))

	go a.prune(ctx, cfg.Throttle.Window)
	return a, nil
}

func (a *App) prune(ctx context.Context, window time.Duration) {
	defer close(a.done)
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			// An idle gate older than the window always allows.
			a.Throttle.Prune(now, window+pruneInterval)
		}
	}
}

func (a *App) closeWatcher() error {
	if a.watcher == nil {
		return nil
	}
	return a.watcher.Close()
}

// Close stops background work and releases the sink.
func (a *App) Close() error {
	a.cancel()
	if a.Processor != nil {
		<-a.done
	}
	var errs []error
	if err := a.closeWatcher(); err != nil {
		errs = append(errs, err)
	}
	if a.Sink != nil {
		if err := a.Sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
