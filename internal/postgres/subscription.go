package postgres

import (
	"context"
	"errors"

	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// SubscriptionStore implements domain.SubscriptionStore using PostgreSQL.
type SubscriptionStore struct {
	repo repository.Querier
	ping func(context.Context) error
}

// Compile-time check to ensure SubscriptionStore implements domain.SubscriptionStore.
var _ domain.SubscriptionStore = (*SubscriptionStore)(nil)

// NewSubscriptionStore creates a new SubscriptionStore. ping may be nil, in
// which case Ping always succeeds.
func NewSubscriptionStore(repo repository.Querier, ping func(context.Context) error) *SubscriptionStore {
	return &SubscriptionStore{repo: repo, ping: ping}
}

// FindByProcessorSubscriptionID returns the record for a processor subscription id.
func (s *SubscriptionStore) FindByProcessorSubscriptionID(ctx context.Context, processorSubscriptionID string) (*domain.Subscription, error) {
	const op = "subscription.find_by_processor_id"

	row, err := s.repo.GetSubscriptionByProcessorID(ctx, processorSubscriptionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, domain.Internal(err, op, "failed to load subscription")
	}
	return mapRepoSubscriptionToDomain(row), nil
}

// FindByUserID returns the most recently updated record for a user.
func (s *SubscriptionStore) FindByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	const op = "subscription.find_by_user"

	row, err := s.repo.GetLatestSubscriptionByUserID(ctx, pgtype.Text{String: userID, Valid: true})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, domain.Internal(err, op, "failed to load subscription")
	}
	return mapRepoSubscriptionToDomain(row), nil
}

// Save upserts the record keyed by processor subscription id. An empty
// UserID or zero LastEventAt leaves the stored value untouched.
func (s *SubscriptionStore) Save(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	const op = "subscription.save"

	if sub == nil || sub.ProcessorSubscriptionID == "" {
		return nil, domain.Invalid(op, "processor subscription id is required")
	}

	params := repository.UpsertSubscriptionParams{
		UserID:                  pgtype.Text{String: sub.UserID, Valid: sub.UserID != ""},
		ProcessorSubscriptionID: sub.ProcessorSubscriptionID,
		ProcessorCustomerID:     sub.ProcessorCustomerID,
		Status:                  string(sub.Status),
		LastEventAt:             pgtype.Timestamptz{Time: sub.LastEventAt, Valid: !sub.LastEventAt.IsZero()},
	}

	row, err := s.repo.UpsertSubscription(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to save subscription")
	}
	return mapRepoSubscriptionToDomain(row), nil
}

// Ping checks database connectivity.
func (s *SubscriptionStore) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// mapRepoSubscriptionToDomain converts a repository Subscription to a domain Subscription.
func mapRepoSubscriptionToDomain(r repository.Subscription) *domain.Subscription {
	sub := &domain.Subscription{
		ID:                      r.ID,
		ProcessorSubscriptionID: r.ProcessorSubscriptionID,
		ProcessorCustomerID:     r.ProcessorCustomerID,
		Status:                  domain.SubscriptionStatus(r.Status),
	}
	if r.UserID.Valid {
		sub.UserID = r.UserID.String
	}
	if r.LastEventAt.Valid {
		sub.LastEventAt = r.LastEventAt.Time
	}
	if r.CreatedAt.Valid {
		sub.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		sub.UpdatedAt = r.UpdatedAt.Time
	}
	return sub
}
