package postgres

import (
	"context"

	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/repository"
)

// EventLedger records processed webhook events in the webhook_events table.
type EventLedger struct {
	repo repository.Querier
}

var _ domain.EventLedger = (*EventLedger)(nil)

// NewEventLedger creates a new EventLedger.
func NewEventLedger(repo repository.Querier) *EventLedger {
	return &EventLedger{repo: repo}
}

// Seen reports whether eventID was already recorded.
func (l *EventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	seen, err := l.repo.WebhookEventExists(ctx, eventID)
	if err != nil {
		return false, domain.Internal(err, "ledger.seen", "failed to check webhook event")
	}
	return seen, nil
}

// Record stores eventID. Recording the same id twice is not an error.
func (l *EventLedger) Record(ctx context.Context, eventID, eventType string) error {
	err := l.repo.RecordWebhookEvent(ctx, repository.RecordWebhookEventParams{
		ProviderEventID: eventID,
		EventType:       eventType,
	})
	if err != nil {
		return domain.Internal(err, "ledger.record", "failed to record webhook event")
	}
	return nil
}
