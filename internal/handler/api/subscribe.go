// Package api holds the JSON API handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/handler"
	"github.com/dukerupert/paysync/internal/service"
)

// IdempotencyKeyHeader lets clients make subscribe retries safe.
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength is Stripe's limit before the suffixes we append.
const maxIdempotencyKeyLength = 200

// SubscriptionCreator is satisfied by *service.IntakeService.
type SubscriptionCreator interface {
	CreateSubscription(ctx context.Context, req service.CreateSubscriptionRequest) (*service.IntakeResult, error)
}

// SubscribeRequest is the subscribe request body.
type SubscribeRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	PriceID string `json:"priceId"`
	UserID  string `json:"userId"`
}

// SubscribeResponse is returned to clients that accept JSON.
type SubscribeResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	CustomerID     string `json:"customerId"`
	Status         string `json:"status"`
	ClientSecret   string `json:"clientSecret,omitempty"`
}

// SubscribeHandler creates processor subscriptions for new subscribers.
type SubscribeHandler struct {
	intake SubscriptionCreator
}

// NewSubscribeHandler creates a SubscribeHandler.
func NewSubscribeHandler(intake SubscriptionCreator) *SubscribeHandler {
	return &SubscribeHandler{intake: intake}
}

// Subscribe handles POST /api/payments/subscribe.
//
// The response is the bare subscription id as text/plain, or a
// SubscribeResponse when the client sends Accept: application/json.
// Field values are not validated here; the processor rejects bad ones and
// its message is returned with 502.
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var body SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			handler.ErrorResponse(w, r, domain.WrapError(err, domain.ETOOLARGE, "subscribe.decode", "Request body too large"))
		case errors.Is(err, io.EOF):
			handler.ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, "subscribe.decode", "Request body is empty"))
		default:
			handler.ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, "subscribe.decode", "Malformed JSON body"))
		}
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		handler.ErrorResponse(w, r, domain.Invalid("subscribe.idempotency_key", "Idempotency-Key is too long"))
		return
	}

	res, err := h.intake.CreateSubscription(r.Context(), service.CreateSubscriptionRequest{
		Email:          body.Email,
		Name:           body.Name,
		PriceID:        body.PriceID,
		UserID:         body.UserID,
		IdempotencyKey: key,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(SubscribeResponse{
			SubscriptionID: res.SubscriptionID,
			CustomerID:     res.CustomerID,
			Status:         string(res.Status),
			ClientSecret:   res.ClientSecret,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, res.SubscriptionID)
}

// wantsJSON looks at Accept only. A JSON request body alone still gets the
// plain-text id.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
