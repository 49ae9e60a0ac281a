package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"srtalert/internal/core/domain"
	"srtalert/internal/core/ports"
	"srtalert/internal/core/services"
	httphandlers "srtalert/internal/handlers/http"
	"srtalert/internal/infrastructure/distributed"
	"srtalert/internal/infrastructure/middleware"
	"srtalert/internal/infrastructure/monitoring"
	"srtalert/internal/infrastructure/obs"
	"srtalert/internal/infrastructure/scheduler"
	"srtalert/internal/infrastructure/stats"
	"srtalert/pkg/circuitbreaker"
	"srtalert/pkg/config"
	"srtalert/pkg/retry"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds the wired components of one monitor instance
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	registry   *prometheus.Registry
	collector  *monitoring.PrometheusCollector
	health     *monitoring.HealthChecker
	supervisor *services.ConnectionSupervisor
	monitor    *services.MonitorService
	scheduler  *scheduler.Scheduler
	redis      *redis.Client
	server     *http.Server
}

func newApp(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (*app, error) {
	log := zapLogger.Sugar()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := monitoring.NewPrometheusCollector(registry)

	var events ports.EventPublisher = services.NopPublisher{}
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		client, err := distributed.NewRedisClient(ctx,
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			log,
		)
		if err != nil {
			return nil, err
		}
		redisClient = client
		bus := distributed.NewEventBus(client, uuid.NewString(), cfg.Redis.Channel, log.Named("events"))
		events = distributed.NewGuardedPublisher(bus, circuitbreaker.DefaultConfig(), log.Named("events"))
	}

	client := obs.NewClient(obs.Config{
		Address:        cfg.OBSAddress(),
		Password:       cfg.OBS.Password,
		RequestTimeout: cfg.OBS.RequestTimeout,
	}, log.Named("obs"))

	supervisor := services.NewConnectionSupervisor(client, retry.ReconnectBackoff(), cfg.OBS.ConnectTimeout, log.Named("supervisor"))
	supervisor.SetMetrics(collector)
	supervisor.SetEventPublisher(events)

	overlay := services.NewOverlayController(client, supervisor, domain.OverlayTarget{
		SceneName:  cfg.Overlay.SceneName,
		SourceName: cfg.Overlay.SourceName,
	}, log.Named("overlay"))
	overlay.SetMetrics(collector)

	fetcher := stats.NewFetcher(cfg.Stats.URL, cfg.Stats.Publisher, cfg.Stats.Timeout, collector, log.Named("stats"))
	timers := scheduler.New()

	monitor := services.NewMonitorService(services.MonitorConfig{
		Policy: services.AlertPolicy{
			Thresholds: services.QualityThresholds{
				BitrateKbps: cfg.Thresholds.BitrateKbps,
				RTTMillis:   cfg.Thresholds.RTTMillis,
			},
			Cooldown:               cfg.Alert.Cooldown,
			DisplayTime:            cfg.Alert.DisplayTime,
			GracePeriod:            cfg.Alert.GracePeriod,
			RegraceOnStreamRestart: cfg.Alert.RegraceOnStreamRestart,
		},
		PollInterval:   cfg.Alert.PollInterval,
		Publisher:      cfg.Stats.Publisher,
		SourceName:     cfg.Overlay.SourceName,
		OverlayTimeout: cfg.OBS.RequestTimeout,
	}, supervisor, fetcher, retry.ReconnectBackoff(), overlay, timers, scheduler.SystemClock{}, zapLogger.Named("monitor"))
	monitor.SetMetrics(collector)
	monitor.SetEventPublisher(events)

	health := monitoring.NewHealthChecker()
	health.AddConnectionChecks(monitor, time.Second)
	if redisClient != nil {
		health.AddRedisCheck(redisClient, 2*time.Second)
	}

	a := &app{
		cfg:        cfg,
		logger:     zapLogger,
		registry:   registry,
		collector:  collector,
		health:     health,
		supervisor: supervisor,
		monitor:    monitor,
		scheduler:  timers,
		redis:      redisClient,
	}

	if cfg.Monitoring.Enabled {
		a.server = &http.Server{
			Addr:              cfg.Monitoring.Address,
			Handler:           a.router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return a, nil
}

// router builds the status server routes
func (a *app) router() *gin.Engine {
	log := a.logger.Sugar().Named("http")

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.TracingMiddleware(),
		middleware.NewHTTPRateLimitMiddleware(a.cfg),
		middleware.ErrorHandlerMiddleware(log),
	)
	httphandlers.NewStatusHandler(a.monitor, a.health, a.registry).SetupRoutes(router)
	return router
}

// run serves the status endpoints and runs the monitor until ctx is done
func (a *app) run(ctx context.Context) error {
	log := a.logger.Sugar()

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			log.Infow("status server listening", "address", a.server.Addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("status server failed: %w", err)
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitorErr := make(chan error, 1)
	go func() {
		monitorErr <- a.monitor.Run(runCtx)
	}()

	select {
	case err := <-serverErr:
		cancel()
		<-monitorErr
		return err
	case err := <-monitorErr:
		return err
	}
}

// close releases every resource; errors are logged
func (a *app) close() {
	log := a.logger.Sugar()

	a.scheduler.Stop()

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			log.Errorw("error during status server shutdown", "error", err)
		}
	}

	if err := a.supervisor.Close(); err != nil {
		log.Debugw("error closing OBS connection", "error", err)
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Errorw("error closing Redis client", "error", err)
		}
	}
}
