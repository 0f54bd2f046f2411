package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/fairway/internal/adapters/http/api"
	"github.com/okian/fairway/internal/adapters/http/swagger"
	"github.com/okian/fairway/internal/adapters/repository"
	"github.com/okian/fairway/internal/adapters/textgen"
	app "github.com/okian/fairway/internal/app"
	"github.com/okian/fairway/internal/config"
	"github.com/okian/fairway/internal/domain/ranking"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "fairway exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the service and serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	if cfg.LogFormat == "json" {
		if err := logger.InitWithWriter(os.Stdout, "json"); err != nil {
			return fmt.Errorf("init json logging: %w", err)
		}
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Configure(metrics.WithConstLabels(map[string]string{"league": cfg.LeagueName}))

	svc, closeStorage, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.Error(ctx, "failed to close storage", logger.Error(err))
		}
	}()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newService opens storage and builds the league service from cfg. The
// returned func closes storage handles that need it.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, func() error, error) {
	storage, err := repository.OpenStorage(cfg.StorageDriver, cfg.StorageLocation())
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	closeStorage := func() error { return nil }
	if c, ok := storage.(io.Closer); ok {
		closeStorage = c.Close
	}
	log.Info(ctx, "storage opened", logger.String("driver", cfg.StorageDriver), logger.String("path", cfg.StorageLocation()))

	store := repository.NewSnapshotStore(ctx, storage,
		repository.WithKey(cfg.StorageKey),
		repository.WithLogger(log.Named("store")),
	)

	opts := []app.Option{
		app.WithLogger(log),
		app.WithStore(store),
		app.WithRules(ranking.Rules{CountedRounds: cfg.CountedRounds, Penalty: cfg.Penalty}),
		app.WithLeagueName(cfg.LeagueName),
		app.WithCommentaryTimeout(cfg.CommentaryTimeout()),
		app.WithQueueSize(cfg.CommentaryQueueSize),
		app.WithRatePerMinute(cfg.CommentaryRatePerMin),
		app.WithIdempotencyKeys(cfg.IdempotencyKeys),
	}
	if cfg.CommentaryEnabled {
		gen, err := textgen.NewGemini(ctx, textgen.Config{
			Endpoint: cfg.CommentaryEndpoint,
			Model:    cfg.CommentaryModel,
			APIKey:   cfg.CommentaryAPIKey,
		})
		if err != nil {
			_ = closeStorage()
			return nil, nil, fmt.Errorf("commentary generator: %w", err)
		}
		opts = append(opts, app.WithGenerator(gen))
		log.Info(ctx, "commentary enabled", logger.String("model", cfg.CommentaryModel))
	}
	return app.New(opts...), closeStorage, nil
}

// newRouter registers the business API and its docs on a chi router.
func newRouter(ctx context.Context, svc *app.Service) http.Handler {
	r := chi.NewRouter()
	api.NewServer(svc, svc).Register(ctx, r)
	swagger.Register(ctx, r)
	return r
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
