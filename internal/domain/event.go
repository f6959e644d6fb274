package domain

import "time"

// Processor event types the reconciler acts on.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is a verified processor event. The concrete type is one of
// SubscriptionChanged, SubscriptionDeleted or OtherEvent.
type Event interface {
	ID() string
	EventType() string
	CreatedAt() time.Time

	isEvent()
}

// SubscriptionSnapshot is the subscription object embedded in an event.
type SubscriptionSnapshot struct {
	ID         string
	CustomerID string
	Status     SubscriptionStatus

	// UserID comes from metadata.userId. HasUserID distinguishes an absent
	// key from an empty value.
	UserID    string
	HasUserID bool
}

type eventHeader struct {
	EventID string
	Type    string
	Created time.Time
}

func (h eventHeader) ID() string           { return h.EventID }
func (h eventHeader) EventType() string    { return h.Type }
func (h eventHeader) CreatedAt() time.Time { return h.Created }

// SubscriptionChanged covers customer.subscription.created and .updated.
type SubscriptionChanged struct {
	eventHeader
	Subscription SubscriptionSnapshot
}

// SubscriptionDeleted covers customer.subscription.deleted.
type SubscriptionDeleted struct {
	eventHeader
	Subscription SubscriptionSnapshot
}

// OtherEvent is any event type the reconciler does not act on.
type OtherEvent struct {
	eventHeader
}

func (SubscriptionChanged) isEvent() {}
func (SubscriptionDeleted) isEvent() {}
func (OtherEvent) isEvent()          {}

// NewEvent builds the variant matching eventType. snap is ignored for
// types other than the subscription lifecycle events.
func NewEvent(id, eventType string, created time.Time, snap SubscriptionSnapshot) Event {
	h := eventHeader{EventID: id, Type: eventType, Created: created}
	switch eventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return SubscriptionChanged{eventHeader: h, Subscription: snap}
	case EventSubscriptionDeleted:
		return SubscriptionDeleted{eventHeader: h, Subscription: snap}
	default:
		return OtherEvent{eventHeader: h}
	}
}

// IsSubscriptionEvent reports whether eventType carries a subscription object.
func IsSubscriptionEvent(eventType string) bool {
	switch eventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return true
	}
	return false
}
