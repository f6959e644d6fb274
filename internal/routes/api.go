package routes

import (
	"net/http"

	"github.com/dukerupert/paysync/internal/handler/api"
	"github.com/dukerupert/paysync/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterAPIRoutes registers the subscribe endpoint and, when configured,
// the token-protected subscription lookup.
func RegisterAPIRoutes(e *echo.Echo, deps APIDeps) {
	g := e.Group("/api")

	subscribe := []func(http.Handler) http.Handler{middleware.MaxBodySize(deps.MaxBodySize)}
	if deps.RateLimiter != nil {
		subscribe = append([]func(http.Handler) http.Handler{deps.RateLimiter.Middleware}, subscribe...)
	}
	g.POST("/payments/subscribe", wrap(deps.SubscribeHandler.Subscribe), mw(subscribe...)...)

	if deps.SubscriptionHandler != nil && deps.AdminToken != "" {
		g.GET("/subscriptions/users/:"+api.UserIDParam,
			wrap(deps.SubscriptionHandler.GetByUser, api.UserIDParam),
			mw(middleware.BearerToken(deps.AdminToken))...,
		)
	}
}
