// Package memory provides in-process implementations of the subscription
// store and event ledger for local development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dukerupert/paysync/internal/domain"
)

// SubscriptionStore is a mutex-guarded map keyed by processor subscription id.
type SubscriptionStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Subscription
	nextID int64
	now    func() time.Time
}

var _ domain.SubscriptionStore = (*SubscriptionStore)(nil)

// NewSubscriptionStore creates an empty store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		byID: make(map[string]*domain.Subscription),
		now:  time.Now,
	}
}

// FindByProcessorSubscriptionID returns a copy of the stored record.
func (s *SubscriptionStore) FindByProcessorSubscriptionID(_ context.Context, processorSubscriptionID string) (*domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.byID[processorSubscriptionID]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

// FindByUserID returns the most recently updated record for userID.
func (s *SubscriptionStore) FindByUserID(_ context.Context, userID string) (*domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Subscription
	for _, sub := range s.byID {
		if sub.UserID != userID {
			continue
		}
		if latest == nil || sub.UpdatedAt.After(latest.UpdatedAt) ||
			(sub.UpdatedAt.Equal(latest.UpdatedAt) && sub.ID > latest.ID) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	cp := *latest
	return &cp, nil
}

// Save upserts sub with the same semantics as the Postgres store.
func (s *SubscriptionStore) Save(_ context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	if sub == nil || sub.ProcessorSubscriptionID == "" {
		return nil, domain.Invalid("subscription.save", "processor subscription id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored, ok := s.byID[sub.ProcessorSubscriptionID]
	if !ok {
		s.nextID++
		stored = &domain.Subscription{
			ID:                      s.nextID,
			ProcessorSubscriptionID: sub.ProcessorSubscriptionID,
			CreatedAt:               now,
		}
		s.byID[sub.ProcessorSubscriptionID] = stored
	}

	if sub.UserID != "" {
		stored.UserID = sub.UserID
	}
	if !sub.LastEventAt.IsZero() {
		stored.LastEventAt = sub.LastEventAt
	}
	stored.ProcessorCustomerID = sub.ProcessorCustomerID
	stored.Status = sub.Status
	stored.UpdatedAt = now

	cp := *stored
	return &cp, nil
}

// Ping always succeeds.
func (s *SubscriptionStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored records.
func (s *SubscriptionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
