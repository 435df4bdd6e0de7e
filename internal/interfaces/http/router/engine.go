package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerly/backend/docs"
	"github.com/ledgerly/backend/internal/infrastructure/auth"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig carries what NewEngine needs besides the handlers
type EngineConfig struct {
	Config      *config.Config
	Logger      *zap.Logger
	JWT         *auth.JWTService
	Meter       metric.Meter            // nil disables HTTP metrics
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
}

// NewEngine assembles the gin engine: global middleware, /health,
// /swagger and the authenticated /api/v1 routes.
func NewEngine(ec EngineConfig, h Handlers) *gin.Engine {
	cfg := ec.Config
	log := ec.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// RequestID first so recovery, logging and tracing all see it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.Secure(cfg.App.Env == "production"))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(ec.Meter))

	jwtCfg := middleware.DefaultJWTConfig(ec.JWT)
	jwtCfg.Logger = log
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(jwtCfg)

	engine.GET("/health", h.System.Health)
	docsGuard := middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
	}, middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{JWTService: ec.JWT, Logger: log}))
	engine.GET("/openapi.json", docsGuard, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(docs.SwaggerInfo.ReadDoc()))
	})
	engine.GET("/swagger/*any", docsGuard,
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/openapi.json")))

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(jwtMiddleware,
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker())
	if ec.RateLimiter != nil {
		r.Use(middleware.RateLimit(ec.RateLimiter))
	}
	r.Use(middleware.Profiling(cfg.Telemetry.ProfilingEnabled))

	for _, group := range LedgerGroups(h) {
		r.Register(group)
	}
	api := r.Setup()
	api.GET("/health", h.System.Health)

	return engine
}
