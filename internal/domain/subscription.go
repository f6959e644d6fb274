package domain

import (
	"context"
	"time"
)

// Subscription-related domain errors.
var (
	ErrSubscriptionNotFound = &Error{Code: ENOTFOUND, Message: "Subscription not found"}
)

// SubscriptionStatus mirrors the processor's subscription status strings.
// Values the processor adds later are stored verbatim.
type SubscriptionStatus string

const (
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// IsTerminal reports whether no further transition is accepted from s.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCanceled
}

// Subscription is the local record of a processor-side subscription.
type Subscription struct {
	// ID is assigned by the store on first persistence. Zero means unsaved.
	ID int64 `json:"id"`

	// UserID is the application user, when known. Never required.
	UserID string `json:"userId,omitempty"`

	// ProcessorSubscriptionID is unique and is the reconciliation key.
	ProcessorSubscriptionID string `json:"processorSubscriptionId"`

	ProcessorCustomerID string             `json:"processorCustomerId"`
	Status              SubscriptionStatus `json:"status"`

	// LastEventAt is the creation time of the processor event that last
	// changed this record. Zero when unknown.
	LastEventAt time.Time `json:"lastEventAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubscriptionStore persists subscription records keyed by processor subscription id.
type SubscriptionStore interface {
	// FindByProcessorSubscriptionID returns ErrSubscriptionNotFound when absent.
	FindByProcessorSubscriptionID(ctx context.Context, processorSubscriptionID string) (*Subscription, error)

	// FindByUserID returns the most recently updated record for the user.
	FindByUserID(ctx context.Context, userID string) (*Subscription, error)

	// Save upserts by ProcessorSubscriptionID and returns the stored record
	// with ID and timestamps populated. Last write wins.
	Save(ctx context.Context, sub *Subscription) (*Subscription, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// EventLedger remembers which processor events were already applied.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID, eventType string) error
}
