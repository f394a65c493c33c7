package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/storeops/backend/internal/application/catalog"
	"github.com/storeops/backend/internal/application/inventory"
	"github.com/storeops/backend/internal/application/purchasing"
	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/infrastructure/auth"
	"github.com/storeops/backend/internal/infrastructure/cache"
	"github.com/storeops/backend/internal/infrastructure/config"
	"github.com/storeops/backend/internal/infrastructure/export"
	"github.com/storeops/backend/internal/infrastructure/feed"
	"github.com/storeops/backend/internal/infrastructure/lock"
	"github.com/storeops/backend/internal/infrastructure/logger"
	"github.com/storeops/backend/internal/infrastructure/persistence"
	"github.com/storeops/backend/internal/infrastructure/storage"
	"github.com/storeops/backend/internal/infrastructure/telemetry"
	"github.com/storeops/backend/internal/interfaces/http/handler"
	"github.com/storeops/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "1.0.0"

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.Telemetry.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = logProvider.Bridge(log, zapcore.InfoLevel)

	log.Info("Starting store ops backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	database, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.Driver == config.DriverSQLite {
		if err := database.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate SQLite schema", zap.Error(err))
		}
	}
	if err := telemetry.RegisterDBTracing(database.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   cfg.Database.Driver,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	store, redisClient, err := cache.NewFactory(cfg.Redis, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing cache", zap.Error(err))
		}
	}()

	stockMetrics, err := telemetry.NewStockMetrics(meterProvider.Meter("storeops/inventory"))
	if err != nil {
		log.Fatal("Failed to create stock metrics", zap.Error(err))
	}

	// Repositories
	db := database.DB
	scope := persistence.NewGormTransactionScope(db)
	materialRepo := persistence.NewGormMaterialRepository(db)
	mappingRepo := persistence.NewGormMappingRepository(db)
	processedRepo := persistence.NewGormProcessedOrderRepository(db)
	ledgerRepo := persistence.NewGormLedgerRepository(db)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db)

	var orderFeed order.Feed
	if cfg.Feed.IsConfigured() {
		client := feed.NewClient(feed.NewConfigCredentials(cfg.Feed), feed.OptionsFromConfig(cfg.Feed), log)
		orderFeed = feed.NewCachedFeed(client, store, cfg.Cache.OrdersTTL, log)
	} else {
		log.Warn("Order feed not configured; fulfillment endpoints will answer 503")
	}

	var exportStorage inventory.ExportStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ExportStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize export storage", zap.Error(err))
		}
		exportStorage = s3Storage
	}

	processorOpts := []inventory.ProcessorOption{
		inventory.WithCacheInvalidator(store),
		inventory.WithStockMetrics(stockMetrics),
	}
	if redisClient != nil {
		processorOpts = append(processorOpts, inventory.WithOrderLocker(
			lock.NewRedisOrderLocker(redisClient, cfg.Lock.OrderLockTTL, lock.WithLogger(log)),
		))
	}

	// Application services
	materialService := catalog.NewMaterialService(scope, materialRepo, store, log)
	mappingService := catalog.NewMappingService(mappingRepo, materialRepo, store, log)
	stockService := inventory.NewStockService(scope, store, stockMetrics, log)
	ledgerService := inventory.NewLedgerService(ledgerRepo, materialRepo, export.NewXLSXExporter(), exportStorage, log)
	fulfillmentService := inventory.NewFulfillmentService(orderFeed, materialRepo, mappingRepo, processedRepo, store, cfg.Cache.FulfillmentTTL, log)
	processor := inventory.NewOrderStockProcessor(scope, processedRepo, log, processorOpts...)
	purchaseOrderService := purchasing.NewPurchaseOrderService(scope, purchaseOrderRepo, store, stockMetrics, log)

	checks := map[string]handler.Pinger{
		"database": handler.PingFunc(func(context.Context) error { return database.Ping() }),
	}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	opts := router.Options{
		Logger:         log,
		HTTP:           cfg.HTTP,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
	}
	if cfg.JWT.Enabled {
		opts.Verifier = auth.NewVerifier(cfg.JWT)
	}
	engine := router.NewEngine(opts, router.Handlers{
		Health:         handler.NewHealthHandler(version, checks),
		Materials:      handler.NewMaterialHandler(materialService),
		Stock:          handler.NewStockHandler(stockService),
		Ledger:         handler.NewLedgerHandler(ledgerService),
		Mappings:       handler.NewMappingHandler(mappingService),
		Orders:         handler.NewOrderHandler(fulfillmentService, processor),
		PurchaseOrders: handler.NewPurchaseOrderHandler(purchaseOrderService),
	})

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
