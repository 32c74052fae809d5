package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/commission-dashboard/sales-api/docs"
	"github.com/commission-dashboard/sales-api/internal/api/handler"
	"github.com/commission-dashboard/sales-api/internal/api/metrics"
	"github.com/commission-dashboard/sales-api/internal/api/middleware"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
	"github.com/commission-dashboard/sales-api/internal/pkg/validation"
)

// maxBodySize caps request bodies before any handler buffers them.
const maxBodySize = "1M"

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Auth      ports.AuthService
	Sales     ports.SaleService
	Validator *validation.Validator
	Logger    zerolog.Logger
	// Checks are pinged by /health/ready.
	Checks map[string]ports.Pinger
	// Registry receives the HTTP and domain metrics. A fresh one is created when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Every route is served both at the root and under /api, and a trailing slash
// is ignored.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = handler.NewValidator(deps.Validator)

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(maxBodySize))
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: reg,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth, m)
	saleHandler := handler.NewSaleHandler(deps.Sales, m)
	healthHandler := handler.NewHealthHandler(deps.Checks)
	requireToken := middleware.Auth(deps.Auth)

	for _, prefix := range []string{"", "/api"} {
		g := e.Group(prefix)

		// --- Auth routes ---
		g.POST("/register", authHandler.Register)
		g.POST("/login", authHandler.Login)
		g.POST("/logout", authHandler.Logout, requireToken)

		// --- Sale routes ---
		sales := g.Group("/sales", requireToken)
		sales.GET("", saleHandler.List)
		sales.POST("", saleHandler.Create)
		sales.POST("/schedule", saleHandler.Schedule)
		sales.GET("/commission", saleHandler.Commission)
		sales.GET("/:id", saleHandler.Get)
		sales.PATCH("/:id", saleHandler.Update)
		sales.DELETE("/:id", saleHandler.Delete)
	}

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
