package router

import (
	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"github.com/invoicing/backend/internal/interfaces/http/handler"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Person   *handler.PersonHandler
	Invoice  *handler.InvoiceHandler
	Document *handler.DocumentHandler
	System   *handler.SystemHandler
}

// EngineConfig carries what the middleware stack needs
type EngineConfig struct {
	HTTP      config.HTTPConfig
	Swagger   config.SwaggerConfig
	Telemetry config.TelemetryConfig
	Profiling config.ProfilingConfig

	Logger        *zap.Logger
	MeterProvider *telemetry.MeterProvider
	// RateLimiter is used when HTTP.RateLimitEnabled is set. The caller
	// owns its cleanup goroutine.
	RateLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the full middleware stack, the
// health and swagger endpoints and the versioned API.
//
// Middleware order:
//  1. RequestID
//  2. request logger and panic recovery
//  3. tracing, span attributes and error marking
//  4. HTTP metrics and profiling labels
//  5. CORS, body limit, rate limit and request timeout
//
// Security headers apply to the API group only so that the swagger UI
// keeps working.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())

	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: cfg.MeterProvider,
		Enabled:       cfg.Telemetry.MetricsEnabled,
	}))
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = cfg.Profiling.Enabled
	engine.Use(middleware.ProfilingWithConfig(profiling))

	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled && cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.Secure())
	if h.Person != nil {
		r.Register(PersonRoutes(h.Person))
	}
	if h.Invoice != nil {
		r.Register(InvoiceRoutes(h.Invoice, h.Document))
	}
	if h.System != nil {
		r.Register(SystemRoutes(h.System))
	}
	r.Setup()

	return engine
}
