package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/baseuac/uac-api/docs"
	"github.com/baseuac/uac-api/internal/api/handler"
	"github.com/baseuac/uac-api/internal/api/middleware"
	"github.com/baseuac/uac-api/internal/core/domain"
	"github.com/baseuac/uac-api/internal/core/ports"
)

const apiVersion = "1.0.0"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	AppName string
	Auth    ports.AuthService
	Roles   ports.RoleService
	// Probes are pinged by /health/ready, keyed by dependency name.
	Probes map[string]ports.Pinger
	Log    zerolog.Logger

	// Registerer and Gatherer back the HTTP metrics middleware and /metrics.
	// Nil falls back to the prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "uac",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	healthHandler := handler.NewHealthHandler(d.AppName, apiVersion, d.Probes, d.Log)
	authHandler := handler.NewAuthHandler(d.Auth)
	adminHandler := handler.NewAdminHandler(d.Roles)
	authMiddleware := middleware.Auth(d.Auth)

	// --- Unauthenticated surface ---
	e.GET("/", healthHandler.Root)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	v1 := e.Group("/api/v1")
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/login/form", authHandler.LoginForm)
	auth.GET("/me", authHandler.Me, authMiddleware)

	// --- Role-gated admin routes ---
	admin := v1.Group("/admin", authMiddleware)
	admin.GET("/admin-only", adminHandler.AdminOnly, middleware.RBAC(domain.GuardAdmin))
	admin.GET("/manager-admin", adminHandler.ManagerOrAdmin, middleware.RBAC(domain.GuardManagerOrAdmin))
	admin.GET("/all-users", adminHandler.AnyRole, middleware.RBAC(domain.GuardAnyRole))
	admin.GET("/my-roles", adminHandler.MyRoles, middleware.RBAC(domain.GuardAnyRole))
	admin.GET("/users", adminHandler.ListUsers, middleware.RBAC(domain.GuardManagerOrAdmin))
	admin.GET("/user-levels", adminHandler.UserLevels, middleware.RBAC(domain.GuardAnyRole))
	admin.POST("/assign-role/:user_id", adminHandler.AssignRole, middleware.RBAC(domain.GuardAdmin))

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
