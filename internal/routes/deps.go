// Package routes registers handlers on the echo instance.
package routes

import (
	"net/http"

	"github.com/dukerupert/paysync/internal/handler"
	"github.com/dukerupert/paysync/internal/handler/api"
	"github.com/dukerupert/paysync/internal/middleware"
)

// APIDeps contains dependencies for the JSON API routes
type APIDeps struct {
	SubscribeHandler *api.SubscribeHandler

	// SubscriptionHandler and AdminToken are optional. The lookup route is
	// only registered when both are set.
	SubscriptionHandler *api.SubscriptionHandler
	AdminToken          string

	// RateLimiter is optional and guards the subscribe route.
	RateLimiter *middleware.RateLimiter

	MaxBodySize int64
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	StripeHandler http.HandlerFunc
	MaxBodySize   int64
}

// SystemDeps contains dependencies for health and metrics routes
type SystemDeps struct {
	HealthHandler  *handler.HealthHandler
	MetricsHandler http.Handler
}
