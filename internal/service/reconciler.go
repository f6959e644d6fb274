package service

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/paysync/internal/billing"
	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/events"
	"github.com/dukerupert/paysync/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const providerStripe = "stripe"

// Outcome describes what the reconciler did with a verified event.
type Outcome string

const (
	// OutcomeApplied means the stored record was created or changed.
	OutcomeApplied Outcome = "applied"
	// OutcomeIgnored means the event required no change.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeDuplicate means the ledger had already seen the event id.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeStale means a newer event had already been applied.
	OutcomeStale Outcome = "stale"
)

// Result reports the reconciliation of one webhook delivery.
type Result struct {
	Outcome   Outcome
	EventID   string
	EventType string

	// Record is the stored record after processing, when one exists.
	Record *domain.Subscription
}

// EventVerifier authenticates and parses webhook payloads.
// billing.Provider satisfies it.
type EventVerifier interface {
	ConstructEvent(payload []byte, signature string) (domain.Event, error)
}

// ReconcilerConfig wires a Reconciler. Verifier and Store are required.
type ReconcilerConfig struct {
	Verifier EventVerifier
	Store    domain.SubscriptionStore

	// Ledger is optional. Without it, redelivered events are re-applied,
	// which converges to the same record.
	Ledger domain.EventLedger

	// Publisher is optional and defaults to events.NoopPublisher.
	Publisher events.Publisher

	// Metrics is optional and defaults to a private registry.
	Metrics *telemetry.BusinessMetrics

	Logger zerolog.Logger

	// RejectStale skips created/updated events older than the event that
	// last changed the record. Off by default: last write wins.
	RejectStale bool
}

// Reconciler applies processor webhook events to the subscription store.
type Reconciler struct {
	verifier    EventVerifier
	store       domain.SubscriptionStore
	ledger      domain.EventLedger
	publisher   events.Publisher
	metrics     *telemetry.BusinessMetrics
	logger      zerolog.Logger
	rejectStale bool
}

// NewReconciler validates cfg and returns a Reconciler.
func NewReconciler(cfg ReconcilerConfig) (*Reconciler, error) {
	if cfg.Verifier == nil {
		return nil, errors.New("reconciler: verifier is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("reconciler: store is required")
	}

	r := &Reconciler{
		verifier:    cfg.Verifier,
		store:       cfg.Store,
		ledger:      cfg.Ledger,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		rejectStale: cfg.RejectStale,
	}
	if r.publisher == nil {
		r.publisher = events.NoopPublisher{}
	}
	if r.metrics == nil {
		r.metrics = telemetry.NewBusinessMetrics("", prometheus.NewRegistry())
	}
	return r, nil
}

// HandleEvent verifies payload against signature and applies the event.
//
// Errors:
//   - ErrInvalidSignature (EUNAUTHORIZED): nothing was read or written.
//   - ErrInvalidPayload (EINVALID): signature valid, body unparseable.
//   - EINTERNAL: the store failed; the event was not recorded and may be
//     redelivered.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, signature string) (Result, error) {
	start := time.Now()
	log := loggerFrom(ctx, r.logger)

	event, err := r.verifier.ConstructEvent(payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidWebhookSignature) {
			r.metrics.WebhookFailed.WithLabelValues(providerStripe, "unknown", "signature").Inc()
			log.Warn().Err(err).Msg("webhook signature verification failed")
			return Result{}, errors.Join(ErrInvalidSignature, err)
		}
		r.metrics.WebhookFailed.WithLabelValues(providerStripe, "unknown", "payload").Inc()
		log.Warn().Err(err).Msg("webhook payload could not be parsed")
		return Result{}, errors.Join(ErrInvalidPayload, err)
	}

	res := Result{EventID: event.ID(), EventType: event.EventType()}
	r.metrics.WebhookReceived.WithLabelValues(providerStripe, res.EventType).Inc()
	defer func() {
		r.metrics.WebhookLatency.WithLabelValues(providerStripe, res.EventType).Observe(time.Since(start).Seconds())
	}()

	elog := log.With().Str("event_id", res.EventID).Str("event_type", res.EventType).Logger()

	if r.ledger != nil {
		seen, err := r.ledger.Seen(ctx, res.EventID)
		switch {
		case err != nil:
			r.metrics.LedgerErrors.WithLabelValues("seen").Inc()
			elog.Warn().Err(err).Msg("ledger lookup failed, processing event anyway")
		case seen:
			res.Outcome = OutcomeDuplicate
			r.metrics.WebhookProcessed.WithLabelValues(providerStripe, res.EventType, string(res.Outcome)).Inc()
			elog.Debug().Msg("event already processed")
			return res, nil
		}
	}

	var prev domain.SubscriptionStatus
	switch e := event.(type) {
	case domain.SubscriptionChanged:
		prev, err = r.applyChanged(ctx, &elog, e, &res)
	case domain.SubscriptionDeleted:
		prev, err = r.applyDeleted(ctx, &elog, e, &res)
	default:
		res.Outcome = OutcomeIgnored
		elog.Debug().Msg("unhandled event type")
	}
	if err != nil {
		r.metrics.WebhookFailed.WithLabelValues(providerStripe, res.EventType, "store").Inc()
		elog.Error().Err(err).Msg("failed to reconcile subscription")
		telemetry.CaptureError(err,
			map[string]string{"event_type": res.EventType, "component": "reconciler"},
			map[string]interface{}{"event_id": res.EventID},
		)
		return res, domain.Internal(err, "reconciler.handle_event", "failed to reconcile subscription")
	}

	r.metrics.WebhookProcessed.WithLabelValues(providerStripe, res.EventType, string(res.Outcome)).Inc()

	if res.Outcome == OutcomeApplied {
		r.afterApply(ctx, &elog, event, prev, res.Record)
	}
	return res, nil
}

// applyChanged handles created and updated events. It returns the status
// the record had before the change (empty for a new record).
func (r *Reconciler) applyChanged(ctx context.Context, log *zerolog.Logger, e domain.SubscriptionChanged, res *Result) (domain.SubscriptionStatus, error) {
	snap := e.Subscription

	existing, err := r.store.FindByProcessorSubscriptionID(ctx, snap.ID)
	if err != nil && !errors.Is(err, domain.ErrSubscriptionNotFound) {
		return "", err
	}

	var prev domain.SubscriptionStatus
	rec := &domain.Subscription{ProcessorSubscriptionID: snap.ID}
	if existing != nil {
		if existing.Status.IsTerminal() {
			res.Outcome = OutcomeIgnored
			res.Record = existing
			log.Info().Str("subscription_id", snap.ID).Str("incoming_status", string(snap.Status)).
				Msg("subscription already canceled, ignoring event")
			return "", nil
		}
		if r.rejectStale && !existing.LastEventAt.IsZero() && existing.LastEventAt.After(e.CreatedAt()) {
			res.Outcome = OutcomeStale
			res.Record = existing
			log.Info().Str("subscription_id", snap.ID).Time("last_event_at", existing.LastEventAt).
				Msg("event older than stored state, skipping")
			return "", nil
		}
		rec = existing
		prev = existing.Status
	}

	if snap.CustomerID != "" {
		rec.ProcessorCustomerID = snap.CustomerID
	}
	rec.Status = snap.Status
	if snap.HasUserID {
		rec.UserID = snap.UserID
	}
	rec.LastEventAt = e.CreatedAt()

	saved, err := r.store.Save(ctx, rec)
	if err != nil {
		return "", err
	}

	if existing == nil {
		r.metrics.SubscriptionsCreated.WithLabelValues("webhook").Inc()
	}
	res.Outcome = OutcomeApplied
	res.Record = saved
	log.Info().Str("subscription_id", snap.ID).Str("status", string(saved.Status)).
		Str("previous_status", string(prev)).Msg("subscription upserted")
	return prev, nil
}

// applyDeleted forces canceled on a known record. Unknown subscriptions are
// not created.
func (r *Reconciler) applyDeleted(ctx context.Context, log *zerolog.Logger, e domain.SubscriptionDeleted, res *Result) (domain.SubscriptionStatus, error) {
	snap := e.Subscription

	existing, err := r.store.FindByProcessorSubscriptionID(ctx, snap.ID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		res.Outcome = OutcomeIgnored
		log.Info().Str("subscription_id", snap.ID).Msg("deleted event for unknown subscription")
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if existing.Status == domain.SubscriptionStatusCanceled {
		res.Outcome = OutcomeIgnored
		res.Record = existing
		return "", nil
	}

	prev := existing.Status
	existing.Status = domain.SubscriptionStatusCanceled
	existing.LastEventAt = e.CreatedAt()

	saved, err := r.store.Save(ctx, existing)
	if err != nil {
		return "", err
	}

	r.metrics.SubscriptionsCanceled.WithLabelValues(string(prev)).Inc()
	res.Outcome = OutcomeApplied
	res.Record = saved
	log.Info().Str("subscription_id", snap.ID).Str("previous_status", string(prev)).Msg("subscription canceled")
	return prev, nil
}

// afterApply records the event in the ledger and publishes the status
// change. Failures are logged; the event is already applied.
func (r *Reconciler) afterApply(ctx context.Context, log *zerolog.Logger, event domain.Event, prev domain.SubscriptionStatus, rec *domain.Subscription) {
	if r.ledger != nil {
		if err := r.ledger.Record(ctx, event.ID(), event.EventType()); err != nil {
			r.metrics.LedgerErrors.WithLabelValues("record").Inc()
			log.Warn().Err(err).Msg("failed to record event in ledger")
		}
	}

	if rec == nil || prev == rec.Status {
		return
	}
	err := r.publisher.Publish(ctx, events.SubscriptionStatusChanged{
		EventID:                 event.ID(),
		EventType:               event.EventType(),
		SubscriptionID:          rec.ID,
		ProcessorSubscriptionID: rec.ProcessorSubscriptionID,
		ProcessorCustomerID:     rec.ProcessorCustomerID,
		UserID:                  rec.UserID,
		PreviousStatus:          prev,
		Status:                  rec.Status,
		OccurredAt:              event.CreatedAt(),
	})
	if err != nil {
		r.metrics.PublishErrors.Inc()
		log.Warn().Err(err).Msg("failed to publish status change")
	}
}
