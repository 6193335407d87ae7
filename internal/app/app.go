// Package app wires configuration, the catalog, and the eligibility service
// into a runnable HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"schemefinder/internal/catalog"
	"schemefinder/internal/eligibility"
	"schemefinder/internal/eligibility/cache"
	eligibilitymetrics "schemefinder/internal/eligibility/metrics"
	"schemefinder/internal/events"
	"schemefinder/internal/platform/config"
	"schemefinder/internal/platform/httpserver"
	"schemefinder/internal/platform/metrics"
	redisclient "schemefinder/internal/platform/redis"
	"schemefinder/pkg/platform/circuit"
)

// App is a fully wired server. Build it, Run it, then Close it.
type App struct {
	Catalog  *catalog.Catalog
	Service  *eligibility.Service
	Router   http.Handler
	Registry *prometheus.Registry

	cfg    *config.Config
	logger *zap.Logger
	server *http.Server
	worker *events.Worker
	redis  *redisclient.Client
	kafka  *events.KafkaSink
}

// Build loads the catalog and wires every optional dependency the config
// enables. A catalog failure is returned; an unreachable Redis only disables
// caching.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	cat, err := LoadCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Catalog:  cat,
		Registry: metrics.NewRegistry(),
		cfg:      cfg,
		logger:   logger,
	}
	m := eligibilitymetrics.New(a.Registry)
	opts := []eligibility.Option{
		eligibility.WithLogger(logger.Named("eligibility")),
		eligibility.WithMetrics(m),
	}

	a.redis, err = redisclient.New(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, result cache disabled", zap.Error(err))
		a.redis = nil
	}
	if a.redis != nil {
		guarded := cache.NewGuarded(cache.NewRedis(a.redis.Client), circuit.New("eligibility-cache"), logger)
		opts = append(opts, eligibility.WithCache(guarded, cfg.Redis.TTL))
	}

	sink, err := a.buildSink(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	if sink != nil {
		pub := events.NewAsyncPublisher(cfg.Events.Buffer, events.WithDropHook(m.IncrementDroppedEvent))
		a.worker = events.NewWorker(sink, pub.Inbox(), logger.Named("events"))
		opts = append(opts, eligibility.WithPublisher(pub))
	}

	a.Service, err = eligibility.New(cat, opts...)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	deps := RouterDeps{
		Service:        a.Service,
		Catalog:        cat,
		Logger:         logger,
		Gatherer:       a.Registry,
		HTTPMetrics:    metrics.NewHTTP(a.Registry),
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if a.redis != nil {
		deps.Redis = a.redis
	}
	a.Router = NewRouter(deps)
	a.server = httpserver.New(cfg.Server.Addr, a.Router)
	return a, nil
}

func (a *App) buildSink(ctx context.Context) (events.Sink, error) {
	switch a.cfg.Events.Sink {
	case config.SinkLog:
		return events.NewLogSink(a.logger.Named("events")), nil
	case config.SinkKafka:
		sink, err := events.NewKafkaSink(ctx, a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic, a.logger)
		if err != nil {
			return nil, fmt.Errorf("kafka event sink: %w", err)
		}
		a.kafka = sink
		return sink, nil
	default:
		return nil, nil
	}
}

// Run serves on ln until ctx is done. The event worker is stopped only after
// the server has drained, so in-flight checks still get their events out.
func (a *App) Run(ctx context.Context, ln net.Listener) error {
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stopWorker()
		a.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		return httpserver.Run(gctx, a.server, ln)
	})
	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Run(workerCtx)
		})
	}
	return g.Wait()
}

// ListenAndRun binds the configured address and calls Run.
func (a *App) ListenAndRun(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Server.Addr, err)
	}
	return a.Run(ctx, ln)
}

// Close releases external connections. Safe to call on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.kafka != nil {
		errs = append(errs, a.kafka.Close(ctx))
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
