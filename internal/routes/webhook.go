package routes

import (
	"github.com/dukerupert/paysync/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterWebhookRoutes registers all webhook routes.
//
// Webhook routes do NOT have authentication middleware. Each webhook
// handler verifies the request signature itself.
func RegisterWebhookRoutes(e *echo.Echo, deps WebhookDeps) {
	limit := deps.MaxBodySize
	if limit <= 0 {
		limit = middleware.WebhookMaxBodySize
	}
	e.POST("/api/webhooks/stripe", wrap(deps.StripeHandler), mw(middleware.MaxBodySize(limit))...)
}
