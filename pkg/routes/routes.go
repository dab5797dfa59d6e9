// Package routes assembles the HTTP API.
package routes

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/kodi/pkg/middleware"
	"github.com/Ramsey-B/kodi/pkg/routes/catalog"
	"github.com/Ramsey-B/kodi/pkg/routes/estimate"
	"github.com/Ramsey-B/kodi/pkg/routes/health"
	"github.com/Ramsey-B/kodi/pkg/routes/keywords"
)

type Handlers struct {
	Estimate *estimate.Handler
	Catalog  *catalog.Handler
	Keywords *keywords.Handler
	Health   *health.Checker
}

// NewServer wires middleware and every route group under /api/v1.
func NewServer(serviceName string, handlers Handlers, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	if handlers.Health != nil {
		handlers.Health.RegisterRoutes(api)
	}
	if handlers.Estimate != nil {
		handlers.Estimate.Register(api)
	}
	if handlers.Catalog != nil {
		handlers.Catalog.Register(api)
	}
	if handlers.Keywords != nil {
		handlers.Keywords.Register(api)
	}

	return e
}
