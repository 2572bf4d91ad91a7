package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/fabtrack/backend/internal/application/catalog"
	commissionapp "github.com/fabtrack/backend/internal/application/commission"
	financeapp "github.com/fabtrack/backend/internal/application/finance"
	tradeapp "github.com/fabtrack/backend/internal/application/trade"
	"github.com/fabtrack/backend/internal/domain/commission"
	"github.com/fabtrack/backend/internal/infrastructure/cache"
	"github.com/fabtrack/backend/internal/infrastructure/config"
	"github.com/fabtrack/backend/internal/infrastructure/event"
	"github.com/fabtrack/backend/internal/infrastructure/logger"
	"github.com/fabtrack/backend/internal/infrastructure/persistence"
	"github.com/fabtrack/backend/internal/infrastructure/telemetry"
	"github.com/fabtrack/backend/internal/interfaces/http/handler"
	"github.com/fabtrack/backend/internal/interfaces/http/middleware"
	"github.com/fabtrack/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//	@title			FabTrack Backend API
//	@version		1.0
//	@description	Quotes, payment schedules, production tracking and seller commissions for a window and door fabricator

//	@host		localhost:8080
//	@BasePath	/api/v1

const version = "1.0.0"

// stageCounter lets the order metrics poll the order service, which is
// built after them
type stageCounter struct {
	orders *tradeapp.OrderService
}

func (s *stageCounter) CountByStage(ctx context.Context) (map[string]int64, error) {
	return s.orders.CountByStage(ctx)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// Initialize logger, then tee it into the OTLP log export
	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if logsProvider.IsEnabled() {
		log, err = logger.New(logCfg, logsProvider.Core(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = logsProvider.Shutdown(shutdownCtx)
	}()

	log.Info("Starting FabTrack backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("timezone", cfg.App.Location().String()),
	)

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
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Per-order lock
	locker, closeLocker, err := cache.NewLockerFactory(cfg.Lock, cfg.Redis, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize order locks", zap.Error(err))
	}
	defer func() {
		if err := closeLocker(); err != nil {
			log.Error("Error closing lock backend", zap.Error(err))
		}
	}()

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	catalogItemRepo := persistence.NewGormCatalogItemRepository(db.DB)
	sheetRepo := persistence.NewGormMeasurementSheetRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	sellerRepo := persistence.NewGormSellerRepository(db.DB)
	settlementStore := persistence.NewGormSettlementStore(db.DB)

	// Metrics and the event bus
	stages := &stageCounter{}
	orderMetrics, err := telemetry.NewOrderMetrics(telemetry.OrderMetricsConfig{
		Meter:         meterProvider.Meter("fabtrack/orders"),
		Logger:        log,
		StageProvider: stages,
	})
	if err != nil {
		log.Fatal("Failed to initialize order metrics", zap.Error(err))
	}
	defer orderMetrics.Stop()

	eventBus := event.NewInMemoryEventBus(log)
	orderEventHandler := event.NewOrderEventHandler(orderMetrics)
	eventBus.Subscribe(orderEventHandler)
	log.Info("Event handlers registered", zap.Strings("order_events", orderEventHandler.EventTypes()))

	// Initialize application services
	loc := cfg.App.Location()
	orderService := tradeapp.NewOrderService(orderRepo, sheetRepo, catalogItemRepo, locker,
		tradeapp.WithEventPublisher(eventBus),
		tradeapp.WithOperationObserver(orderMetrics),
		tradeapp.WithDefaultDeliveryDays(cfg.Production.DefaultDeliveryDays),
		tradeapp.WithLocation(loc),
	)
	settlementService := financeapp.NewSettlementService(orderRepo, expenseRepo, settlementStore, locker,
		financeapp.WithEventPublisher(eventBus),
		financeapp.WithOperationObserver(orderMetrics),
		financeapp.WithLocation(loc),
	)
	calculator := commission.NewCalculator(commission.WithRates(commission.Rates{
		HighDiscountThreshold: decimal.NewFromFloat(cfg.Commission.HighDiscountThreshold),
		HighDiscountRate:      decimal.NewFromFloat(cfg.Commission.HighDiscountRate),
		LowDiscountRate:       decimal.NewFromFloat(cfg.Commission.LowDiscountRate),
		FullPriceRate:         decimal.NewFromFloat(cfg.Commission.FullPriceRate),
	}))
	commissionService := commissionapp.NewCommissionService(orderRepo, sellerRepo, sheetRepo, catalogItemRepo,
		commissionapp.WithCalculator(calculator),
		commissionapp.WithLocation(loc),
	)
	catalogService := catalogapp.NewCatalogService(catalogItemRepo, sheetRepo)

	stages.orders = orderService
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	orderMetrics.StartPeriodicCollection(metricsCtx, time.Minute)

	// Initialize HTTP handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)
	handlers := handler.Handlers{
		Order:      handler.NewOrderHandler(orderService),
		Settlement: handler.NewSettlementHandler(settlementService),
		Commission: handler.NewCommissionHandler(commissionService),
		Catalog:    handler.NewCatalogHandler(catalogService),
		System:     systemHandler,
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Server span, then request attributes and error status
	// 3. Logger - Log requests
	// 4. Recovery - Catch panics
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. Metrics - Request count, latency and size
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
	}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	for _, group := range handlers.DomainGroups() {
		r.Register(group)
	}
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("api", r.BasePath()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
