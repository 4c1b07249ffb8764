package router

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/auth"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/erp/pos/internal/interfaces/http/handler"
	"github.com/erp/pos/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the endpoints mounted by NewEngine
type Handlers struct {
	Sale   *handler.SaleHandler
	Order  *handler.OrderHandler
	Drawer *handler.DrawerHandler
	Query  *handler.QueryHandler
	Health *handler.HealthHandler
}

// Options configures the middleware chain
type Options struct {
	Logger *zap.Logger
	HTTP   config.HTTPConfig

	// Verifier enables bearer token authentication; nil trusts X-User-ID
	Verifier *auth.TokenVerifier

	IdempotencyStore shared.IdempotencyStore
	Idempotency      shared.IdempotencyConfig

	// RateLimiter is owned by the caller, which stops it on shutdown
	RateLimiter *middleware.RateLimiter

	MeterProvider *telemetry.MeterProvider
	Tracing       middleware.TracingConfig
	Profiling     middleware.ProfilingConfig
	Security      middleware.SecurityConfig
}

// NewEngine builds the gin engine with every POS route.
// /health and /ready sit outside the versioned API and need no actor.
func NewEngine(h Handlers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(opts.Tracing),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(opts.MeterProvider),
		middleware.CORSWithConfig(corsConfig(opts.HTTP)),
		middleware.Secure(opts.Security),
	)
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}
	engine.Use(middleware.Timeout(opts.HTTP.RequestTimeout))

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
		engine.GET("/ready", h.Health.Ready)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(
		middleware.ResolveActor(middleware.ActorConfig{Verifier: opts.Verifier, Logger: log}),
		middleware.TracingAttributeInjector(),
	)
	if opts.RateLimiter != nil {
		r.Use(middleware.RateLimit(opts.RateLimiter))
	}
	r.Use(middleware.Profiling(opts.Profiling))

	idempotent := middleware.Idempotency(opts.IdempotencyStore, opts.Idempotency)
	for _, g := range DomainGroups(h, idempotent) {
		r.Register(g)
		log.Debug("Routes registered", zap.String("group", g.Name()), zap.Strings("routes", g.Routes()))
	}
	r.Setup()

	return engine
}

// DomainGroups declares the resource groups of the API. idempotent wraps
// the operations that create money movements.
func DomainGroups(h Handlers, idempotent gin.HandlerFunc) []*DomainGroup {
	var groups []*DomainGroup

	if h.Sale != nil {
		sales := NewDomainGroup("sales", "/sales")
		sales.POST("", idempotent, h.Sale.Create).
			GET("", h.Sale.List).
			GET("/:id", h.Sale.Get).
			POST("/:id/void", h.Sale.Void)
		groups = append(groups, sales)
	}

	if h.Order != nil {
		orders := NewDomainGroup("orders", "/orders")
		orders.POST("", idempotent, h.Order.Create).
			GET("", h.Order.List).
			GET("/:id", h.Order.Get).
			PUT("/:id", h.Order.Edit).
			POST("/:id/cancel", h.Order.Cancel).
			POST("/:id/approve", h.Order.Approve).
			POST("/:id/process", h.Order.Process).
			POST("/:id/deliver", h.Order.Deliver).
			POST("/:id/convert", idempotent, h.Order.Convert)
		groups = append(groups, orders)
	}

	if h.Drawer != nil {
		drawers := NewDomainGroup("drawers", "/drawers")
		drawers.POST("", h.Drawer.Open).
			GET("/current", h.Drawer.Current).
			POST("/:id/close", h.Drawer.Close).
			POST("/:id/movements", h.Drawer.RegisterMovement).
			GET("/:id/movements", h.Drawer.Movements).
			GET("/:id/report", h.Drawer.Report)
		groups = append(groups, drawers)
	}

	if h.Query != nil {
		stock := NewDomainGroup("stock", "/stock")
		stock.GET("/:branch_id", h.Query.BranchStock).
			GET("/:branch_id/:product_id", h.Query.StockAvailability)

		customers := NewDomainGroup("customers", "/customers")
		customers.GET("/:id/credit", h.Query.CreditExposure)

		groups = append(groups, stock, customers)
	}

	return groups
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cc := middleware.DefaultCORSConfig()
	cc.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cc.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cc.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cc
}
