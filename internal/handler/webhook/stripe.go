// Package webhook receives payment processor webhooks.
package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/handler"
	"github.com/dukerupert/paysync/internal/middleware"
	"github.com/dukerupert/paysync/internal/service"
)

// SignatureHeader carries Stripe's webhook signature.
const SignatureHeader = "Stripe-Signature"

// Response bodies. Stripe only looks at the status code; the bodies are
// kept stable for operators reading delivery logs.
const (
	bodySuccess          = "Success"
	bodyInvalidSignature = "Error: Invalid signature"
	bodyInvalidPayload   = "Error: Invalid payload"
	bodyProcessingFailed = "Error: Processing failed"
)

// AckMode selects the status codes returned for rejected or failed events.
type AckMode string

const (
	// AckStrict answers 400 for a bad signature and 500 when the store
	// fails, so Stripe redelivers after transient failures.
	AckStrict AckMode = "strict"

	// AckFaithful answers 200 for both, keeping the error body. Stripe
	// will not redeliver.
	AckFaithful AckMode = "faithful"
)

// EventHandler applies a signed webhook delivery. *service.Reconciler
// satisfies it.
type EventHandler interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) (service.Result, error)
}

// StripeWebhookConfig contains configuration for Stripe webhook handling
type StripeWebhookConfig struct {
	// AckMode defaults to AckStrict.
	AckMode AckMode
}

// StripeHandler handles Stripe webhook events
type StripeHandler struct {
	events EventHandler
	config StripeWebhookConfig
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(events EventHandler, config StripeWebhookConfig) *StripeHandler {
	if config.AckMode != AckFaithful {
		config.AckMode = AckStrict
	}
	return &StripeHandler{events: events, config: config}
}

// HandleWebhook verifies and applies one delivery.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/api/webhooks/stripe
//	stripe trigger customer.subscription.updated
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	log := middleware.GetLogger(r.Context())

	if r.Method != http.MethodPost {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "webhook.stripe", "Method not allowed"))
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handler.ErrorResponse(w, r, domain.WrapError(err, domain.ETOOLARGE, "webhook.stripe", "Request body too large"))
			return
		}
		handler.ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, "webhook.stripe", "Error reading request body"))
		return
	}

	res, err := h.events.HandleEvent(r.Context(), payload, r.Header.Get(SignatureHeader))
	switch {
	case err == nil:
		log.Debug().
			Str("event_id", res.EventID).
			Str("event_type", res.EventType).
			Str("outcome", string(res.Outcome)).
			Msg("webhook acknowledged")
		writeText(w, http.StatusOK, bodySuccess)

	case errors.Is(err, service.ErrInvalidSignature):
		status := http.StatusBadRequest
		if h.config.AckMode == AckFaithful {
			status = http.StatusOK
		}
		writeText(w, status, bodyInvalidSignature)

	case errors.Is(err, service.ErrInvalidPayload):
		writeText(w, http.StatusBadRequest, bodyInvalidPayload)

	default:
		if h.config.AckMode == AckFaithful {
			log.Error().Err(err).Str("event_id", res.EventID).Msg("processing failed, acknowledging anyway")
			writeText(w, http.StatusOK, bodySuccess)
			return
		}
		writeText(w, http.StatusInternalServerError, bodyProcessingFailed)
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
