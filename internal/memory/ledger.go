package memory

import (
	"context"
	"sync"

	"github.com/dukerupert/paysync/internal/domain"
)

// EventLedger keeps processed event ids in memory. Entries never expire.
type EventLedger struct {
	mu   sync.RWMutex
	seen map[string]string
}

var _ domain.EventLedger = (*EventLedger)(nil)

func NewEventLedger() *EventLedger {
	return &EventLedger{seen: make(map[string]string)}
}

func (l *EventLedger) Seen(_ context.Context, eventID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[eventID]
	return ok, nil
}

func (l *EventLedger) Record(_ context.Context, eventID, eventType string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[eventID] = eventType
	return nil
}
