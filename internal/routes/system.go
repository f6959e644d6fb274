package routes

import (
	"github.com/labstack/echo/v4"
)

// RegisterSystemRoutes registers /health and /metrics. /metrics should be
// firewalled in production.
func RegisterSystemRoutes(e *echo.Echo, deps SystemDeps) {
	if deps.HealthHandler != nil {
		e.GET("/health", wrap(deps.HealthHandler.Health))
	}
	if deps.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(deps.MetricsHandler))
	}
}
