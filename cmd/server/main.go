package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcatalog "github.com/clinicstock/backend/internal/application/catalog"
	appinv "github.com/clinicstock/backend/internal/application/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/clinicstock/backend/internal/infrastructure/auth"
	"github.com/clinicstock/backend/internal/infrastructure/cache"
	"github.com/clinicstock/backend/internal/infrastructure/config"
	"github.com/clinicstock/backend/internal/infrastructure/event"
	"github.com/clinicstock/backend/internal/infrastructure/export"
	"github.com/clinicstock/backend/internal/infrastructure/logger"
	"github.com/clinicstock/backend/internal/infrastructure/migration"
	"github.com/clinicstock/backend/internal/infrastructure/persistence"
	"github.com/clinicstock/backend/internal/infrastructure/storage"
	"github.com/clinicstock/backend/internal/infrastructure/telemetry"
	"github.com/clinicstock/backend/internal/interfaces/http/handler"
	"github.com/clinicstock/backend/internal/interfaces/http/middleware"
	"github.com/clinicstock/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.ForEnvironment(cfg.App.Env)
	logCfg.Level = cfg.Log.Level
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		logCfg.Output = cfg.Log.Output
	}
	bootstrap, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Telemetry first so the process logger can tee into the OTLP logs pipeline
	ctx := context.Background()
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, bootstrap)
	if err != nil {
		bootstrap.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		bootstrap.Fatal("Invalid log level", zap.Error(err))
	}
	log, err := logger.New(logCfg, providers.ZapCore(level))
	if err != nil {
		bootstrap.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting clinic inventory",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	profiler, err := telemetry.StartProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		BasicAuthUser:   cfg.Profiling.BasicAuthUser,
		BasicAuthPass:   cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Warn("Profiler not started", zap.Error(err))
	} else if profiler.Running() {
		providers.EnableSpanProfiles()
	}

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTracing && providers.TracingEnabled(),
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if err := migrate(db, log); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Idempotency store: Redis when configured, in-process otherwise
	store, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	inventoryMetrics, err := telemetry.NewInventoryMetrics(otel.GetMeterProvider())
	if err != nil {
		log.Fatal("Failed to create inventory metrics", zap.Error(err))
	}

	// Event bus with at-most-once delivery per handler
	bus := event.NewInMemoryEventBus(log)
	for _, h := range event.WrapHandlers([]shared.EventHandler{
		appinv.NewAuditLogHandler(log),
		appinv.NewMetricsHandler(inventoryMetrics),
	}, store, log) {
		bus.Subscribe(h)
	}
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Repositories and services
	scope := persistence.NewGormTransactionScope(db.DB)
	ledger := persistence.NewGormStockLedger(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	unitRepo := persistence.NewGormUnitRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)

	productService := appcatalog.NewProductService(scope.CatalogScope(), productRepo, unitRepo, bus, log)
	unitService := appcatalog.NewUnitService(scope.CatalogScope(), unitRepo)
	batchOpts := []appcatalog.BatchServiceOption{
		appcatalog.WithReportWriter(export.NewExpiringXLSXWriter()),
		appcatalog.WithDefaultHorizon(cfg.Inventory.ExpiryHorizon()),
	}
	var archive *storage.S3ReportArchive
	if cfg.Storage.Enabled {
		archive, err = storage.NewS3ReportArchive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create report archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare report bucket", zap.Error(err))
		}
		batchOpts = append(batchOpts, appcatalog.WithReportArchive(archive))
		log.Info("Report archive enabled", zap.String("bucket", archive.Bucket()))
	}
	batchService := appcatalog.NewBatchService(scope.CatalogScope(), batchRepo, productRepo, ledger, bus, log, batchOpts...)
	requestService := appinv.NewRequestService(scope, persistence.NewGormRequestRepository(db.DB), bus, log,
		appinv.WithExpiryPolicy(appinv.ExpiryPolicy(cfg.Inventory.ExpiryPolicy)),
		appinv.WithMetrics(inventoryMetrics),
	)
	holdingService := appinv.NewHoldingService(scope, persistence.NewGormHoldingRepository(db.DB), ledger, bus, log)
	correctionService := appinv.NewCorrectionService(scope, persistence.NewGormCorrectionRepository(db.DB), bus, log)
	stockService := appinv.NewStockService(ledger)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	httpMetrics, err := middleware.HTTPMetrics(otel.GetMeterProvider())
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine.Use(
		middleware.Tracing(cfg.Telemetry.ServiceName),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.SpanAttributes(),
		httpMetrics,
		middleware.CORSWithConfig(middleware.DefaultCORSConfig()),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	apiMiddleware := []gin.HandlerFunc{middleware.Identity(identityConfig(cfg, log))}
	if cfg.HTTP.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(limiter))
	}

	r := router.NewRouter(engine, router.WithAPIMiddleware(apiMiddleware...))
	r.Register(router.InventoryGroups(router.Handlers{
		Products:    handler.NewProductHandler(productService, unitService),
		Batches:     handler.NewBatchHandler(batchService),
		Stock:       handler.NewStockHandler(stockService),
		Requests:    handler.NewRequestHandler(requestService),
		Holdings:    handler.NewHoldingHandler(holdingService),
		Corrections: handler.NewCorrectionHandler(correctionService),
	}, middleware.IdempotencyKey(store, cfg.Inventory.IdempotencyTTL))...)
	r.Setup()

	health := handler.NewHealthHandler(version).AddCheck("database", db)
	if p, ok := store.(handler.Pinger); ok {
		health.AddCheck("redis", p)
	}
	if archive != nil {
		health.AddCheck("storage", archive)
	}
	router.RegisterHealthRoutes(engine, health)

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
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func migrate(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// identityConfig verifies bearer tokens when JWT is enabled and trusts X-User-ID otherwise
func identityConfig(cfg *config.Config, log *zap.Logger) middleware.IdentityConfig {
	ic := middleware.IdentityConfig{Logger: log}
	if cfg.JWT.Enabled {
		ic.Validator = auth.NewJWTService(cfg.JWT)
	} else {
		log.Warn("JWT disabled; callers are identified by the X-User-ID header")
	}
	return ic
}
