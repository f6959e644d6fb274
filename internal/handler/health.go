package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dukerupert/paysync/internal/middleware"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the subscription store is reachable.
type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler creates a HealthHandler. A nil ping always reports ok.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// Health handles GET /health: 200 {"status":"ok"} or 503 {"status":"unavailable"}.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, "ok"

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := h.ping(ctx); err != nil {
			middleware.GetLogger(r.Context()).Warn().Err(err).Msg("health check failed")
			status, body = http.StatusServiceUnavailable, "unavailable"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": body})
}
