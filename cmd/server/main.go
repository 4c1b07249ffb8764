// Command server runs the POS transaction engine HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcash "github.com/erp/pos/internal/application/cash"
	"github.com/erp/pos/internal/application/ledger"
	apporder "github.com/erp/pos/internal/application/order"
	"github.com/erp/pos/internal/application/query"
	appsale "github.com/erp/pos/internal/application/sale"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/auth"
	"github.com/erp/pos/internal/infrastructure/cache"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/erp/pos/internal/infrastructure/event"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/infrastructure/persistence"
	"github.com/erp/pos/internal/infrastructure/readmodel"
	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/erp/pos/internal/interfaces/http/handler"
	"github.com/erp/pos/internal/interfaces/http/middleware"
	"github.com/erp/pos/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		log = loggerProvider.Bridge(log, zapcore.InfoLevel)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env, "version": version},
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting POS engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	db, err := persistence.NewDatabase(ctx, &cfg.Database, log,
		persistence.WithLogLevel(logger.MapGormLogLevel(cfg.Log.Level)),
		persistence.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		persistence.WithTracing(telemetry.DBTracingConfig{
			Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get database handle", zap.Error(err))
	}
	log.Info("Database connected")

	// Repositories and read model
	scope := persistence.NewGormTransactionScope(db.DB, persistence.WithMaxAttempts(cfg.Database.MaxTxAttempts))
	stockRepo := persistence.NewGormStockRepository(db.DB)
	drawerRepo := persistence.NewGormDrawerSessionRepository(db.DB)
	creditRepo := persistence.NewGormCreditAccountRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	reader := readmodel.NewReader(sqlDB, "pgx")

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	journal := event.NewJournalHandler()
	eventBus.Subscribe(journal, journal.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Business metrics
	var businessMetrics *telemetry.BusinessMetrics
	if meterProvider.IsEnabled() {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:          meterProvider.Meter("pos.ledger"),
			Logger:         log,
			LedgerProvider: telemetry.NewGormLedgerMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		businessMetrics.StartPeriodicCollection(ctx, 5*time.Minute)
	}

	// Services
	series := ledger.NumberSeries{
		Invoice: cfg.Fiscal.InvoiceSeries,
		NCF:     cfg.Fiscal.NCFSeries,
		Order:   cfg.Fiscal.OrderSeries,
	}
	saleService := appsale.NewSaleService(scope, saleRepo, series)
	orderService := apporder.NewOrderService(scope, orderRepo, series)
	cashService := appcash.NewCashSessionService(scope, drawerRepo, reader, cfg.Sale.ReportLocale)
	queryService := query.NewQueryService(stockRepo, creditRepo, drawerRepo, reader)

	saleService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)
	cashService.SetEventPublisher(eventBus)
	if businessMetrics != nil {
		saleService.SetBusinessMetrics(businessMetrics)
		orderService.SetBusinessMetrics(businessMetrics)
		cashService.SetBusinessMetrics(businessMetrics)
	}

	// Idempotency store
	idempotencyStore, err := cache.OpenIdempotencyStore(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var verifier *auth.TokenVerifier
	if cfg.Auth.Enabled {
		verifier = auth.NewTokenVerifier(cfg.Auth)
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()

	engine := router.NewEngine(router.Handlers{
		Sale:   handler.NewSaleHandler(saleService),
		Order:  handler.NewOrderHandler(orderService),
		Drawer: handler.NewDrawerHandler(cashService, queryService),
		Query:  handler.NewQueryHandler(queryService),
		Health: handler.NewHealthHandler(cfg.App.Name, version, map[string]handler.ReadinessCheck{
			"database": db.Ping,
		}),
	}, router.Options{
		Logger:           log,
		HTTP:             cfg.HTTP,
		Verifier:         verifier,
		IdempotencyStore: idempotencyStore,
		Idempotency: shared.IdempotencyConfig{
			Enabled: cfg.Sale.IdempotencyEnabled,
			TTL:     cfg.Sale.IdempotencyTTL,
		},
		RateLimiter:   rateLimiter,
		MeterProvider: meterProvider,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Profiling: middleware.ProfilingConfig{
			Enabled:   profiler.IsEnabled(),
			SkipPaths: middleware.DefaultProfilingConfig().SkipPaths,
		},
		Security: security,
	})
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
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
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Drain in reverse order of construction
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	if err := idempotencyStore.Close(); err != nil {
		log.Warn("Error closing idempotency store", zap.Error(err))
	}
	if businessMetrics != nil {
		businessMetrics.Stop()
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Error stopping event bus", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing logs", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing traces", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
