package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerly/backend/internal/bootstrap"
	"github.com/ledgerly/backend/internal/infrastructure/cache"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/infrastructure/persistence"
	"github.com/ledgerly/backend/internal/infrastructure/scheduler"
	"github.com/ledgerly/backend/internal/infrastructure/telemetry"
	"github.com/ledgerly/backend/internal/interfaces/http/handler"
	"github.com/ledgerly/backend/internal/interfaces/http/middleware"
	"github.com/ledgerly/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Ledgerly API
//	@version		1.0
//	@description	Receivables ledger: retailers, invoices, payments with oldest-due-first allocation, due reminders and statements.

//	@contact.name	API Support
//	@contact.url	https://github.com/ledgerly/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	serviceFields := logger.WithFields(zap.String("service", cfg.Telemetry.ServiceName), zap.String("version", version))
	bootLog, err := logger.New(logCfg, serviceFields)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, telemetryConfig(cfg), bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			bootLog.Warn("Telemetry shutdown incomplete", zap.Error(err))
		}
	}()

	// Mirror logs to the collector once the log provider runs
	log := bootLog
	if tel.Logs.IsEnabled() {
		log, err = logger.New(logCfg, serviceFields,
			logger.WithCore(tel.Logs.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))))
		if err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting ledgerly",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.String("timezone", cfg.App.Location().String()),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentDB(db.DB, telemetryConfig(cfg), log); err != nil {
		log.Warn("Failed to instrument database, continuing without query spans", zap.Error(err))
	}
	if db.Driver == "sqlite" {
		// Migration files target postgres; sqlite is only used for local runs
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	backend, err := cache.NewBackend(ctx, cfg.Redis, cfg.Ledger,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"))
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = backend.Close() }()

	deps := bootstrap.Deps{
		Config: cfg,
		Logger: log,
		DB:     db.DB,
		Cache:  backend,
		Meter:  tel.Meter.Meter("ledgerly"),
	}

	if cfg.Export.PDFEnabled {
		pdf, err := bootstrap.NewPDFRenderer(cfg, log)
		if err != nil {
			log.Fatal("Failed to initialize PDF export", zap.Error(err))
		}
		defer func() { _ = pdf.Close() }()
		deps.PDF = pdf
	}

	if cfg.Storage.Enabled() {
		store, err := bootstrap.NewObjectStore(ctx, cfg, log)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		deps.Store = store
	}

	container, err := bootstrap.New(deps)
	if err != nil {
		log.Fatal("Failed to build services", zap.Error(err))
	}
	if err := container.Bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() { _ = container.Bus.Stop(context.Background()) }()

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if backend.Client != nil {
		checks["redis"] = func(ctx context.Context) error { return backend.Client.Ping(ctx).Err() }
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateWindow)
		go limiter.Run(ctx)
	}

	engine := router.NewEngine(router.EngineConfig{
		Config:      cfg,
		Logger:      log,
		JWT:         container.JWT,
		Meter:       tel.Meter.Meter("ledgerly.http"),
		RateLimiter: limiter,
	}, container.Handlers(version, checks))

	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.New(cfg.App.Location(), log.Named("scheduler"),
			scheduler.WithJobTimeout(cfg.Scheduler.JobTimeout))
		if err := container.RegisterJobs(jobs); err != nil {
			log.Fatal("Failed to register scheduled jobs", zap.Error(err))
		}
		jobs.Start()
		log.Info("Next due check", zap.Time("at", jobs.Next(bootstrap.JobDueCheck)))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if jobs != nil {
		if err := jobs.Stop(shutdownCtx); err != nil {
			log.Warn("Scheduled jobs did not finish in time", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	return telemetry.Config{
		Enabled:            cfg.Telemetry.Enabled,
		CollectorEndpoint:  cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:      cfg.Telemetry.SamplingRatio,
		ServiceName:        cfg.Telemetry.ServiceName,
		ServiceVersion:     version,
		Insecure:           cfg.Telemetry.Insecure,
		DBTraceEnabled:     cfg.Telemetry.DBTraceEnabled,
		DBLogFullSQL:       cfg.Telemetry.DBLogFullSQL,
		DBSystem:           dbSystem(cfg.Database.Driver),
		ProfilingEnabled:   cfg.Telemetry.ProfilingEnabled,
		PyroscopeServerURL: cfg.Telemetry.PyroscopeServerURL,
	}
}

func dbSystem(driver string) string {
	if driver == "sqlite" {
		return "sqlite"
	}
	return "postgresql"
}
