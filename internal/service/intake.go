package service

import (
	"context"
	"errors"

	"github.com/dukerupert/paysync/internal/billing"
	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// CreateSubscriptionRequest is the client's subscribe request. Fields are
// forwarded to the processor as-is; the processor validates them.
type CreateSubscriptionRequest struct {
	Email   string
	Name    string
	PriceID string

	// UserID is optional. When set it is attached as metadata so later
	// webhooks can link the subscription to the user.
	UserID string

	// IdempotencyKey is optional and comes from the client's
	// Idempotency-Key header.
	IdempotencyKey string
}

// IntakeResult is returned after the processor accepted both calls.
type IntakeResult struct {
	SubscriptionID string
	CustomerID     string
	Status         domain.SubscriptionStatus
	ClientSecret   string
}

// IntakeService creates a processor customer and subscription for a new
// subscriber. It keeps no local state.
type IntakeService struct {
	provider billing.Provider
	metrics  *telemetry.BusinessMetrics
	logger   zerolog.Logger
}

// NewIntakeService creates an IntakeService. A nil metrics registers on a
// private registry.
func NewIntakeService(provider billing.Provider, metrics *telemetry.BusinessMetrics, logger zerolog.Logger) *IntakeService {
	if metrics == nil {
		metrics = telemetry.NewBusinessMetrics("", prometheus.NewRegistry())
	}
	return &IntakeService{
		provider: provider,
		metrics:  metrics,
		logger:   logger,
	}
}

// CreateSubscription creates the customer, then the subscription, and
// returns the processor subscription id. There is no retry and no
// compensation: a customer created before a failed subscription call stays
// on the processor and is logged.
func (s *IntakeService) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*IntakeResult, error) {
	log := loggerFrom(ctx, s.logger)

	var metadata map[string]string
	if req.UserID != "" {
		metadata = map[string]string{billing.MetadataUserID: req.UserID}
	}

	customerKey, subscriptionKey := "", ""
	if req.IdempotencyKey != "" {
		customerKey = req.IdempotencyKey + ":customer"
		subscriptionKey = req.IdempotencyKey + ":subscription"
	}

	customer, err := s.provider.CreateCustomer(ctx, billing.CreateCustomerParams{
		Email:          req.Email,
		Name:           req.Name,
		Metadata:       metadata,
		IdempotencyKey: customerKey,
	})
	if err != nil {
		s.metrics.IntakeRequests.WithLabelValues("processor_error").Inc()
		log.Error().Err(err).Str("step", "create_customer").Msg("processor rejected customer creation")
		return nil, processorError(err, "intake.create_customer")
	}

	sub, err := s.provider.CreateSubscription(ctx, billing.CreateSubscriptionParams{
		CustomerID:     customer.ID,
		PriceID:        req.PriceID,
		Metadata:       metadata,
		IdempotencyKey: subscriptionKey,
	})
	if err != nil {
		s.metrics.IntakeRequests.WithLabelValues("processor_error").Inc()
		s.metrics.OrphanCustomers.Inc()
		log.Warn().
			Err(err).
			Str("customer_id", customer.ID).
			Str("price_id", req.PriceID).
			Msg("subscription creation failed, customer left without subscription")
		return nil, processorError(err, "intake.create_subscription")
	}

	s.metrics.IntakeRequests.WithLabelValues("success").Inc()
	s.metrics.SubscriptionsCreated.WithLabelValues("intake").Inc()
	log.Info().
		Str("customer_id", customer.ID).
		Str("subscription_id", sub.ID).
		Str("status", string(sub.Status)).
		Msg("subscription created")

	return &IntakeResult{
		SubscriptionID: sub.ID,
		CustomerID:     customer.ID,
		Status:         sub.Status,
		ClientSecret:   sub.ClientSecret,
	}, nil
}

// processorError wraps err as EPROCESSOR, surfacing the processor's own
// message when it sent one.
func processorError(err error, op string) error {
	var se *billing.StripeError
	if errors.As(err, &se) && se.Message != "" {
		return domain.WrapError(err, domain.EPROCESSOR, op, se.Message)
	}
	return domain.Processor(err, op)
}
