package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appanalytics "github.com/GrupoEuro/SmartEC-sub000/internal/application/analytics"
	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/cache"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/config"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/logger"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/persistence"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/scheduler"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/telemetry"
	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/handler"
	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/middleware"
	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			BI Analytics API
//	@version		1.0
//	@description	Revenue, forecasting, inventory and customer analytics over commerce records
//	@BasePath		/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting analytics server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("store_backend", cfg.Analytics.StoreBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	logLevel, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		logLevel = zapcore.InfoLevel
	}
	log = telemetry.BridgeLogger(log, loggerProvider, logLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		ProfileTypes:    cfg.Telemetry.ProfilingTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Telemetry.SpanProfilesEnabled && profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	metrics, err := telemetry.NewAnalyticsMetrics(meterProvider.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to create analytics metrics", zap.Error(err))
	}

	// Record store
	store, checks, closeStore, err := newRecordStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open record store", zap.Error(err))
	}
	defer closeStore()

	// Report cache, optionally shared through Redis
	serviceOpts := []appanalytics.Option{
		appanalytics.WithLogger(log),
		appanalytics.WithMetrics(metrics),
	}
	if cfg.Redis.Enabled {
		resultStore, err := cache.NewRedisResultStore(cache.RedisConfig{
			Host:      cfg.Redis.Host,
			Port:      cfg.Redis.Port,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := resultStore.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
		serviceOpts = append(serviceOpts, appanalytics.WithResultStore(resultStore))
		checks["redis"] = resultStore.Ping
		log.Info("Redis result store connected")
	}

	fetchCache := cache.NewFetchCache(store,
		cache.WithFetchLogger(log),
		cache.WithFetchHook(metrics.RecordFetch),
	)
	service := appanalytics.NewService(fetchCache, engineConfig(cfg.Analytics), serviceOpts...)

	// Cache warm-up
	var (
		jobScheduler *scheduler.Scheduler
		warmTrigger  *scheduler.WarmTrigger
	)
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewAnalyticsExecutor(service, log)
		schedulerCfg := scheduler.DefaultSchedulerConfig()
		schedulerCfg.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrentJobs
		schedulerCfg.JobTimeout = cfg.Scheduler.JobTimeout
		schedulerCfg.RetryAttempts = cfg.Scheduler.RetryAttempts

		jobScheduler = scheduler.NewScheduler(schedulerCfg, executor, log)
		if err := jobScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}

		triggerCfg := scheduler.DefaultWarmTriggerConfig()
		triggerCfg.Interval = cfg.Scheduler.WarmInterval
		triggerCfg.WindowDays = cfg.Scheduler.WarmWindowDays
		warmTrigger = scheduler.NewWarmTrigger(triggerCfg, executor, jobScheduler, log)
		if err := warmTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start warm trigger", zap.Error(err))
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	engine.GET("/health", handler.NewHealthHandler(checks).Health)
	router.MountSwagger(engine, middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:    cfg.Swagger.Enabled,
		AllowedIPs: cfg.Swagger.AllowedIPs,
	}))

	var routeMiddleware []gin.HandlerFunc
	if cfg.HTTP.RateLimit.Enabled {
		limiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.HTTP.RateLimit.RPS,
			BurstSize:         cfg.HTTP.RateLimit.Burst,
		})
		routeMiddleware = append(routeMiddleware, limiter.Middleware())
	}

	routes := router.NewRouter(engine).
		Register(router.AnalyticsRoutes(handler.NewAnalyticsHandler(service), routeMiddleware...)).
		Setup()
	log.Info("Routes mounted",
		zap.Int("count", len(routes)),
		zap.Bool("rate_limited", cfg.HTTP.RateLimit.Enabled),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if warmTrigger != nil {
		if err := warmTrigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping warm trigger", zap.Error(err))
		}
	}
	if jobScheduler != nil {
		if err := jobScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}

}

// newRecordStore opens the configured backend and returns it with its
// health checks and a close function.
func newRecordStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (analytics.RecordStore, map[string]handler.HealthCheck, func(), error) {
	checks := make(map[string]handler.HealthCheck)

	if cfg.Analytics.StoreBackend == "mongo" {
		store, err := persistence.NewMongoRecordStore(ctx, &cfg.Mongo, log)
		if err != nil {
			return nil, nil, nil, err
		}
		checks["mongo"] = store.Ping
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				log.Error("Error closing mongo", zap.Error(err))
			}
		}
		return store, checks, closeFn, nil
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, nil, nil, err
	}
	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   dbSystem,
	}, log); err != nil {
		return nil, nil, nil, err
	}

	store := persistence.NewGormRecordStore(db.DB)
	if cfg.Database.Driver == "sqlite" {
		if err := store.Migrate(); err != nil {
			return nil, nil, nil, err
		}
	}
	checks["database"] = func(context.Context) error { return db.Ping() }
	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))
	return store, checks, closeFn, nil
}

// engineConfig maps the analytics config section onto the engine settings.
func engineConfig(cfg config.AnalyticsConfig) appanalytics.Config {
	return appanalytics.Config{
		CacheTTL:  cfg.CacheTTL,
		CostRatio: decimal.NewFromFloat(cfg.DefaultCostRatio),
		Policy: analytics.ReorderPolicy{
			LeadTimeDays:    cfg.LeadTimeDays,
			OrderCycleDays:  cfg.OrderCycleDays,
			SafetyStockDays: cfg.SafetyStockDays,
		},
		VelocityHistoryDays: cfg.VelocityHistoryDays,
		ABCWindowDays:       cfg.ABCWindowDays,
		TrendThreshold:      cfg.TrendThreshold,
	}
}
