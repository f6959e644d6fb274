package billing

import (
	"context"
	"time"

	"github.com/dukerupert/paysync/internal/domain"
)

// MetadataUserID is the metadata key carrying the application user id on
// processor customers and subscriptions.
const MetadataUserID = "userId"

// Provider defines the interface for the payment processor.
// StripeProvider is the production implementation; MockProvider backs tests
// and local development.
type Provider interface {
	// CreateCustomer creates a customer record in the billing provider.
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// CreateSubscription creates a recurring subscription in an incomplete
	// state. The first invoice is left open for the client to confirm.
	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error)

	// ConstructEvent verifies the signature header against the configured
	// webhook secret and parses the payload into a domain.Event.
	// Returns ErrInvalidWebhookSignature or ErrInvalidWebhookPayload.
	ConstructEvent(payload []byte, signature string) (domain.Event, error)
}

// CreateCustomerParams contains parameters for creating a customer.
// Values are forwarded to the processor unvalidated.
type CreateCustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string

	// IdempotencyKey is optional. See CreateSubscriptionParams.
	IdempotencyKey string
}

// Customer represents a billing customer.
type Customer struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// CreateSubscriptionParams contains parameters for creating a subscription.
type CreateSubscriptionParams struct {
	// CustomerID is the processor customer the subscription belongs to.
	CustomerID string

	// PriceID is the single recurring price on the subscription.
	PriceID string

	Metadata map[string]string

	// IdempotencyKey is optional. When set, the processor deduplicates
	// retried create calls with the same key.
	IdempotencyKey string
}

// Subscription represents a processor subscription as returned on creation.
type Subscription struct {
	ID         string
	CustomerID string
	Status     domain.SubscriptionStatus

	// ClientSecret confirms the first invoice's payment on the client.
	// Empty when the processor did not return a confirmation object.
	ClientSecret string

	Metadata  map[string]string
	CreatedAt time.Time
}
