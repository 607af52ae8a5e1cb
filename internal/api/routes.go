// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/iha-referee/backend/internal/observability"
	"github.com/iha-referee/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Referee    Referee
	Identifier session.Identifier
	Sessions   SessionCounter
	Metrics    *observability.Collector
	Version    string
}

// Handlers holds all handler instances
type Handlers struct {
	Health      HealthHandler
	Auth        AuthHandler
	Telemetry   TelemetryHandler
	Events      EventHandler
	Publication PublicationHandler
	Metrics     http.Handler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	id := deps.Identifier
	if id == nil {
		id = session.AddressIdentifier{}
	}
	h := &Handlers{
		Health:      NewHealthHandler(deps.Version, deps.Referee, deps.Sessions),
		Auth:        NewAuthHandler(deps.Referee, id),
		Telemetry:   NewTelemetryHandler(deps.Referee, id),
		Events:      NewEventHandler(deps.Referee, id),
		Publication: NewPublicationHandler(deps.Referee),
	}
	if deps.Metrics != nil {
		h.Metrics = deps.Metrics.Handler()
	}
	return h
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Competition protocol
	apiGroup.POST("/giris", handlers.Auth.HandleLogin)
	apiGroup.GET("/sunucusaati", handlers.Auth.HandleServerTime)
	apiGroup.POST("/telemetri_gonder", handlers.Telemetry.HandleTelemetry)
	apiGroup.POST("/kilitlenme_bilgisi", handlers.Events.HandleLock)
	apiGroup.POST("/kamikaze_bilgisi", handlers.Events.HandleDive)
	apiGroup.GET("/qr_koordinati", handlers.Publication.HandleTarget)
	apiGroup.GET("/hss_koordinatlari", handlers.Publication.HandleHazards)

	if handlers.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(handlers.Metrics))
	}
}

// MiddlewareConfig selects the common middleware
type MiddlewareConfig struct {
	RequestLogging bool
	Timeout        time.Duration
	BodyLimit      string
	Compression    bool
	AllowOrigins   []string // empty disables CORS
	TrustProxy     bool     // take the caller address from X-Forwarded-For
	Metrics        *observability.Collector
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	e.HTTPErrorHandler = ErrorHandler

	// Sessions are bound to the caller address, so it must not be spoofable.
	if cfg.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.Middleware())
	}

	if cfg.Timeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout:      cfg.Timeout,
			ErrorMessage: "Request timeout",
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/metrics"
			},
		}))
	}

	if cfg.Compression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Skipper: func(c echo.Context) bool {
				return wantsMsgpack(c.Request())
			},
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if len(cfg.AllowOrigins) > 0 {
		origins := make([]string, 0, len(cfg.AllowOrigins))
		for _, o := range cfg.AllowOrigins {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, session.TokenHeader},
			ExposeHeaders: []string{session.TokenHeader},
		}))
	}
}
