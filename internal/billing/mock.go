package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dukerupert/paysync/internal/domain"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82/webhook"
)

// MockProvider is a mock billing provider for testing and local development.
// Simulates successful flows without calling the Stripe API.
type MockProvider struct {
	// CreateCustomerFunc allows customizing customer creation behavior
	CreateCustomerFunc func(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// CreateSubscriptionFunc allows customizing subscription creation behavior
	CreateSubscriptionFunc func(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error)

	// ConstructEventFunc allows customizing webhook verification behavior
	ConstructEventFunc func(payload []byte, signature string) (domain.Event, error)

	// WebhookSecret, when set, makes the default ConstructEvent verify
	// signatures exactly like StripeProvider does.
	WebhookSecret string

	// Customers stores created customers for retrieval
	Customers map[string]*Customer

	// Subscriptions stores created subscriptions for retrieval
	Subscriptions map[string]*Subscription

	// CallLog tracks method calls for test assertions
	CallLog []string

	mu sync.Mutex
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Customers:     make(map[string]*Customer),
		Subscriptions: make(map[string]*Subscription),
		CallLog:       []string{},
	}
}

func (m *MockProvider) logCall(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, call)
}

// Calls returns a copy of the call log.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.CallLog...)
}

// CreateCustomer creates a mock customer.
func (m *MockProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	m.logCall(fmt.Sprintf("CreateCustomer(%s)", params.Email))

	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, params)
	}

	c := &Customer{
		ID:        "cus_" + uuid.New().String(),
		Email:     params.Email,
		Name:      params.Name,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.Customers[c.ID] = c
	m.mu.Unlock()
	return c, nil
}

// CreateSubscription creates a mock subscription in the incomplete state.
func (m *MockProvider) CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error) {
	m.logCall(fmt.Sprintf("CreateSubscription(%s, %s)", params.CustomerID, params.PriceID))

	if m.CreateSubscriptionFunc != nil {
		return m.CreateSubscriptionFunc(ctx, params)
	}

	id := "sub_" + uuid.New().String()
	sub := &Subscription{
		ID:           id,
		CustomerID:   params.CustomerID,
		Status:       domain.SubscriptionStatusIncomplete,
		ClientSecret: "pi_" + uuid.New().String() + "_secret_" + uuid.New().String(),
		Metadata:     params.Metadata,
		CreatedAt:    time.Now(),
	}

	m.mu.Lock()
	m.Subscriptions[id] = sub
	m.mu.Unlock()
	return sub, nil
}

// ConstructEvent verifies (when WebhookSecret is set) and parses a webhook payload.
func (m *MockProvider) ConstructEvent(payload []byte, signature string) (domain.Event, error) {
	m.logCall("ConstructEvent")

	if m.ConstructEventFunc != nil {
		return m.ConstructEventFunc(payload, signature)
	}

	if signature == "" {
		return nil, ErrInvalidWebhookSignature
	}
	if m.WebhookSecret != "" {
		if err := webhook.ValidatePayload(payload, signature, m.WebhookSecret); err != nil {
			return nil, errors.Join(ErrInvalidWebhookSignature, err)
		}
	}
	return ParseEvent(payload)
}
