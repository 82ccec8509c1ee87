package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/wellmed/internal/adapters/history"
	"github.com/okian/wellmed/internal/adapters/http/api"
	"github.com/okian/wellmed/internal/adapters/http/swagger"
	"github.com/okian/wellmed/internal/adapters/mq/publisher"
	service "github.com/okian/wellmed/internal/app"
	"github.com/okian/wellmed/internal/config"
	"github.com/okian/wellmed/internal/scheduler"
	"github.com/okian/wellmed/pkg/logger"
	"github.com/okian/wellmed/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Runtime metrics come from updateSystemMetrics on the custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	metrics.Init(metricsOptions(cfg)...)
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "wellmed exited", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the service from cfg and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	pub, err := newPublisher(cfg, log)
	if err != nil {
		_ = store.Close()
		return err
	}

	svc := service.New(
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithMoodWindow(cfg.MoodWindow),
		service.WithHistoryStore(store),
		service.WithPublisher(pub),
	)
	mux, err := newMux(ctx, cfg, svc, log)
	if err != nil {
		_ = pub.Close()
		_ = store.Close()
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	var sched *scheduler.Scheduler
	if cfg.ReassessCron != "" {
		sched, err = scheduler.New(cfg.ReassessCron, svc, scheduler.WithLogger(log.Named("scheduler")))
		if err != nil {
			_ = svc.Stop(context.Background())
			return err
		}
		sched.Start(ctx)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
		}
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("service stop: %w", err))
	}
	log.Info(ctx, "server stopped")
	return errors.Join(append([]error{runErr}, errs...)...)
}

// metricsOptions maps the metrics settings onto manager options.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithConstLabels(cfg.MetricsLabels),
		metrics.WithHistogramBuckets(cfg.MetricsLatencyBuckets),
	}
}

// openHistory returns the history store selected by cfg.StoreDriver.
func openHistory(cfg *config.Config) (history.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		store, err := history.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite history: %w", err)
		}
		return store, nil
	default:
		return history.NewMemoryStore(), nil
	}
}

// newPublisher returns a Kafka publisher when brokers are configured.
func newPublisher(cfg *config.Config, log logger.Logger) (publisher.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return publisher.NopPublisher{}, nil
	}
	p, err := publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic,
		publisher.WithLogger(log.Named("publisher")),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	return p, nil
}

// newMux registers the docs and business routes.
func newMux(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) (*http.ServeMux, error) {
	opts := []api.ServerOption{
		api.WithMaxWatchlist(cfg.MaxWatchlistLimit),
		api.WithLogger(log.Named("api")),
	}
	if cfg.JWTSecret != "" {
		auth, err := api.NewAuthenticator(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		opts = append(opts, api.WithAuthenticator(auth))
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, opts...).Register(ctx, mux)
	return mux, nil
}

// startSystemMetricsUpdater updates runtime metrics until ctx is done.
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

// startServiceMetricsUpdater refreshes queue and board gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

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

// updateServiceMetrics samples the service; GetStats refreshes the queue
// and board gauges itself.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if workers, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workers)
	}
	if capacity, ok := stats["queueSize"].(int); ok {
		metrics.UpdateQueueCapacity(capacity)
		if length, ok := stats["queueLength"].(int); ok && capacity > 0 {
			metrics.UpdateQueueUtilization(float64(length) / float64(capacity))
		}
	}
}
