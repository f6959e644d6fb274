// Package billingtest builds Stripe webhook payloads for tests.
package billingtest

import (
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// SubscriptionEvent describes a customer.subscription.* event.
type SubscriptionEvent struct {
	EventID        string
	Type           string
	Created        time.Time
	SubscriptionID string
	CustomerID     string
	Status         string

	// Metadata becomes data.object.metadata verbatim. Nil renders as {}.
	Metadata map[string]string
}

// Payload renders the event as Stripe would deliver it.
func (e SubscriptionEvent) Payload() []byte {
	created := e.Created
	if created.IsZero() {
		created = time.Now()
	}
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	body := map[string]any{
		"id":          e.EventID,
		"object":      "event",
		"api_version": "2025-04-30.basil",
		"type":        e.Type,
		"created":     created.Unix(),
		"livemode":    false,
		"data": map[string]any{
			"object": map[string]any{
				"id":       e.SubscriptionID,
				"object":   "subscription",
				"customer": e.CustomerID,
				"status":   e.Status,
				"metadata": metadata,
			},
		},
	}

	b, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return b
}

// OtherEventPayload renders a non-subscription event such as invoice.paid.
func OtherEventPayload(eventID, eventType string) []byte {
	b, err := json.Marshal(map[string]any{
		"id":      eventID,
		"object":  "event",
		"type":    eventType,
		"created": time.Now().Unix(),
		"data": map[string]any{
			"object": map[string]any{"id": "in_123", "object": "invoice"},
		},
	})
	if err != nil {
		panic(err)
	}
	return b
}

// Sign returns the Stripe-Signature header for payload.
func Sign(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}
