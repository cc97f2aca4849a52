package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/photomarathon/pipeline/internal/validator"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

const readyTimeout = 2 * time.Second

// BuildEcho serves the worker's health, readiness and metrics endpoints
func BuildEcho(logger *slog.Logger, service string, deps Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	validate := validator.Create()
	e.Validator = &validate

	e.Pre(middleware.AddTrailingSlash())

	e.Use(
		otelecho.Middleware(service),
		slogecho.NewWithConfig(logger, slogecho.Config{
			DefaultLevel: slog.LevelDebug,
			Filters:      []slogecho.Filter{slogecho.IgnorePath("/metrics/")},
		}),
	)

	e.GET("/health/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.GET("/ready/", func(c echo.Context) error {
		if deps == nil {
			return c.NoContent(http.StatusOK)
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
		defer cancel()

		if err := deps.PingContext(ctx); err != nil {
			logger.WarnContext(ctx, "readiness check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "database unreachable"})
		}
		return c.NoContent(http.StatusOK)
	})

	e.GET("/metrics/", echo.WrapHandler(promhttp.Handler()))

	return e
}
