// Package events publishes subscription status changes for other services.
package events

import (
	"context"
	"time"

	"github.com/dukerupert/paysync/internal/domain"
)

// DefaultSubjectPrefix is prepended to the status to form the subject.
const DefaultSubjectPrefix = "payments.subscription"

// SubscriptionStatusChanged is emitted after a webhook changes a record.
type SubscriptionStatusChanged struct {
	EventID                 string                    `json:"eventId"`
	EventType               string                    `json:"eventType"`
	SubscriptionID          int64                     `json:"subscriptionId"`
	ProcessorSubscriptionID string                    `json:"processorSubscriptionId"`
	ProcessorCustomerID     string                    `json:"processorCustomerId"`
	UserID                  string                    `json:"userId,omitempty"`
	PreviousStatus          domain.SubscriptionStatus `json:"previousStatus,omitempty"`
	Status                  domain.SubscriptionStatus `json:"status"`
	OccurredAt              time.Time                 `json:"occurredAt"`
}

// Publisher delivers status notifications. Implementations must be safe
// for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, msg SubscriptionStatusChanged) error
}

// NoopPublisher drops every message.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, SubscriptionStatusChanged) error { return nil }
