package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dukerupert/paysync/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// expandConfirmationSecret asks Stripe to inline the first invoice's
// confirmation object so the client secret comes back on creation.
const expandConfirmationSecret = "latest_invoice.confirmation_secret"

// customerCreator and subscriptionCreator are the subset of the Stripe client
// used here, split out so tests can substitute them.
type customerCreator interface {
	Create(ctx context.Context, params *stripe.CustomerCreateParams) (*stripe.Customer, error)
}

type subscriptionCreator interface {
	Create(ctx context.Context, params *stripe.SubscriptionCreateParams) (*stripe.Subscription, error)
}

// StripeProvider implements Provider using the Stripe API.
type StripeProvider struct {
	customers     customerCreator
	subscriptions subscriptionCreator
	webhookSecret string
	tolerance     time.Duration

	// observe, when set, receives the latency of each Stripe API call.
	observe func(operation string, d time.Duration)
}

// Compile-time check to ensure StripeProvider implements Provider.
var _ Provider = (*StripeProvider)(nil)

// StripeOption customizes a StripeProvider.
type StripeOption func(*StripeProvider)

// WithLatencyObserver registers fn to receive per-operation API latency.
func WithLatencyObserver(fn func(operation string, d time.Duration)) StripeOption {
	return func(p *StripeProvider) {
		p.observe = fn
	}
}

// NewStripeProvider creates a Stripe billing provider with its own client.
// The API key is scoped to the returned provider.
func NewStripeProvider(cfg StripeConfig, opts ...StripeOption) (*StripeProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidAPIKey, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(int64(cfg.MaxRetries)),
	})
	sc := stripe.NewClient(cfg.APIKey, stripe.WithBackends(backends))

	return newStripeProvider(sc.V1Customers, sc.V1Subscriptions, cfg, opts...), nil
}

func newStripeProvider(customers customerCreator, subscriptions subscriptionCreator, cfg StripeConfig, opts ...StripeOption) *StripeProvider {
	tolerance := cfg.WebhookTolerance
	if tolerance <= 0 {
		tolerance = DefaultWebhookTolerance
	}

	p := &StripeProvider{
		customers:     customers,
		subscriptions: subscriptions,
		webhookSecret: cfg.WebhookSecret,
		tolerance:     tolerance,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateCustomer creates a Stripe customer.
func (s *StripeProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	cp := &stripe.CustomerCreateParams{
		Email: stripe.String(params.Email),
		Name:  stripe.String(params.Name),
	}
	for k, v := range params.Metadata {
		cp.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		cp.SetIdempotencyKey(params.IdempotencyKey)
	}

	start := time.Now()
	c, err := s.customers.Create(ctx, cp)
	s.record("create_customer", start)
	if err != nil {
		return nil, convertStripeError(err)
	}

	return &Customer{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		CreatedAt: time.Unix(c.Created, 0),
	}, nil
}

// CreateSubscription creates a Stripe subscription with payment_behavior
// default_incomplete and a single line item.
func (s *StripeProvider) CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error) {
	sp := &stripe.SubscriptionCreateParams{
		Customer: stripe.String(params.CustomerID),
		Items: []*stripe.SubscriptionCreateItemParams{
			{Price: stripe.String(params.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	sp.AddExpand(expandConfirmationSecret)
	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		sp.SetIdempotencyKey(params.IdempotencyKey)
	}

	start := time.Now()
	sub, err := s.subscriptions.Create(ctx, sp)
	s.record("create_subscription", start)
	if err != nil {
		return nil, convertStripeError(err)
	}

	out := &Subscription{
		ID:        sub.ID,
		Status:    domain.SubscriptionStatus(sub.Status),
		Metadata:  sub.Metadata,
		CreatedAt: time.Unix(sub.Created, 0),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.ConfirmationSecret != nil {
		out.ClientSecret = sub.LatestInvoice.ConfirmationSecret.ClientSecret
	}
	return out, nil
}

// ConstructEvent verifies a webhook signature and parses the event.
// The event's API version is not checked against the library's pinned
// version; only the fields the reconciler reads are decoded.
func (s *StripeProvider) ConstructEvent(payload []byte, signature string) (domain.Event, error) {
	if err := webhook.ValidatePayloadWithTolerance(payload, signature, s.webhookSecret, s.tolerance); err != nil {
		return nil, errors.Join(ErrInvalidWebhookSignature, err)
	}
	return ParseEvent(payload)
}

// ParseEvent decodes an already-verified Stripe event payload.
func ParseEvent(payload []byte) (domain.Event, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, errors.Join(ErrInvalidWebhookPayload, errors.New("missing event id or type"))
	}

	eventType := string(event.Type)
	created := time.Unix(event.Created, 0).UTC()

	if !domain.IsSubscriptionEvent(eventType) {
		return domain.NewEvent(event.ID, eventType, created, domain.SubscriptionSnapshot{}), nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, errors.Join(ErrInvalidWebhookPayload, errors.New("missing data.object"))
	}

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}
	if sub.ID == "" {
		return nil, errors.Join(ErrInvalidWebhookPayload, errors.New("subscription object has no id"))
	}

	snap := domain.SubscriptionSnapshot{
		ID:     sub.ID,
		Status: domain.SubscriptionStatus(sub.Status),
	}
	if sub.Customer != nil {
		snap.CustomerID = sub.Customer.ID
	}
	if uid, ok := sub.Metadata[MetadataUserID]; ok {
		snap.UserID = uid
		snap.HasUserID = true
	}

	return domain.NewEvent(event.ID, eventType, created, snap), nil
}

func (s *StripeProvider) record(operation string, start time.Time) {
	if s.observe != nil {
		s.observe(operation, time.Since(start))
	}
}

// convertStripeError maps a stripe-go error to *StripeError.
// Non-Stripe errors (network, context) are returned unchanged.
func convertStripeError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return err
	}
	return &StripeError{
		Message:        se.Msg,
		Code:           string(se.Code),
		Type:           string(se.Type),
		DeclineCode:    string(se.DeclineCode),
		HTTPStatusCode: se.HTTPStatusCode,
		RequestID:      se.RequestID,
		OriginalError:  err,
	}
}
