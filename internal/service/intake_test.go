package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dukerupert/paysync/internal/billing"
	"github.com/dukerupert/paysync/internal/billing/billingtest"
	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/memory"
	"github.com/dukerupert/paysync/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntake(provider billing.Provider) (*IntakeService, *telemetry.BusinessMetrics) {
	metrics := telemetry.NewBusinessMetrics("test", prometheus.NewRegistry())
	return NewIntakeService(provider, metrics, zerolog.New(io.Discard)), metrics
}

func TestIntakeService_CreateSubscription(t *testing.T) {
	provider := billing.NewMockProvider()
	svc, metrics := newIntake(provider)

	res, err := svc.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		Email:   "ada@example.com",
		Name:    "Ada Lovelace",
		PriceID: "price_monthly",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.SubscriptionID)
	assert.NotEmpty(t, res.CustomerID)
	assert.NotEmpty(t, res.ClientSecret)
	assert.Equal(t, domain.SubscriptionStatusIncomplete, res.Status)

	assert.Equal(t, []string{
		"CreateCustomer(ada@example.com)",
		"CreateSubscription(" + res.CustomerID + ", price_monthly)",
	}, provider.Calls())

	sub := provider.Subscriptions[res.SubscriptionID]
	require.NotNil(t, sub)
	assert.Equal(t, res.CustomerID, sub.CustomerID)
	assert.Nil(t, sub.Metadata)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.IntakeRequests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SubscriptionsCreated.WithLabelValues("intake")))
}

func TestIntakeService_ForwardsParams(t *testing.T) {
	tests := []struct {
		name             string
		req              CreateSubscriptionRequest
		wantMetadata     map[string]string
		wantCustomerKey  string
		wantSubscribeKey string
	}{
		{
			name:         "user id attached as metadata on both objects",
			req:          CreateSubscriptionRequest{Email: "a@b.c", Name: "A", PriceID: "price_1", UserID: "user-42"},
			wantMetadata: map[string]string{billing.MetadataUserID: "user-42"},
		},
		{
			name:             "idempotency key suffixed per call",
			req:              CreateSubscriptionRequest{Email: "a@b.c", Name: "A", PriceID: "price_1", IdempotencyKey: "req-1"},
			wantCustomerKey:  "req-1:customer",
			wantSubscribeKey: "req-1:subscription",
		},
		{
			name: "inputs forwarded unvalidated",
			req:  CreateSubscriptionRequest{Email: "", Name: "", PriceID: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCustomer billing.CreateCustomerParams
			var gotSub billing.CreateSubscriptionParams

			provider := billing.NewMockProvider()
			provider.CreateCustomerFunc = func(_ context.Context, p billing.CreateCustomerParams) (*billing.Customer, error) {
				gotCustomer = p
				return &billing.Customer{ID: "cus_1", Email: p.Email}, nil
			}
			provider.CreateSubscriptionFunc = func(_ context.Context, p billing.CreateSubscriptionParams) (*billing.Subscription, error) {
				gotSub = p
				return &billing.Subscription{ID: "sub_1", CustomerID: p.CustomerID, Status: domain.SubscriptionStatusIncomplete}, nil
			}

			svc, _ := newIntake(provider)
			res, err := svc.CreateSubscription(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, "sub_1", res.SubscriptionID)

			assert.Equal(t, tt.req.Email, gotCustomer.Email)
			assert.Equal(t, tt.req.Name, gotCustomer.Name)
			assert.Equal(t, tt.wantMetadata, gotCustomer.Metadata)
			assert.Equal(t, tt.wantCustomerKey, gotCustomer.IdempotencyKey)

			assert.Equal(t, "cus_1", gotSub.CustomerID)
			assert.Equal(t, tt.req.PriceID, gotSub.PriceID)
			assert.Equal(t, tt.wantMetadata, gotSub.Metadata)
			assert.Equal(t, tt.wantSubscribeKey, gotSub.IdempotencyKey)
		})
	}
}

func TestIntakeService_CustomerFailure(t *testing.T) {
	provider := billing.NewMockProvider()
	provider.CreateCustomerFunc = func(context.Context, billing.CreateCustomerParams) (*billing.Customer, error) {
		return nil, &billing.StripeError{Message: "Invalid email address: nope", Type: "invalid_request_error", HTTPStatusCode: 400}
	}
	svc, metrics := newIntake(provider)

	res, err := svc.CreateSubscription(context.Background(), CreateSubscriptionRequest{Email: "nope", PriceID: "price_1"})
	require.Error(t, err)
	assert.Nil(t, res)

	assert.Equal(t, domain.EPROCESSOR, domain.ErrorCode(err))
	assert.Equal(t, "Invalid email address: nope", domain.ErrorMessage(err))
	assert.Equal(t, "intake.create_customer", domain.ErrorOp(err))

	// No subscription call after a failed customer call.
	assert.Equal(t, []string{"CreateCustomer(nope)"}, provider.Calls())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.OrphanCustomers))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.IntakeRequests.WithLabelValues("processor_error")))
}

func TestIntakeService_SubscriptionFailureLeavesOrphan(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
	}{
		{
			name:        "stripe error message surfaced",
			err:         &billing.StripeError{Message: "No such price: 'price_bad'", Code: "resource_missing", HTTPStatusCode: 400},
			wantMessage: "No such price: 'price_bad'",
		},
		{
			name:        "transport error",
			err:         errors.New("dial tcp: connection refused"),
			wantMessage: "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := billing.NewMockProvider()
			provider.CreateSubscriptionFunc = func(context.Context, billing.CreateSubscriptionParams) (*billing.Subscription, error) {
				return nil, tt.err
			}
			svc, metrics := newIntake(provider)

			_, err := svc.CreateSubscription(context.Background(), CreateSubscriptionRequest{Email: "a@b.c", PriceID: "price_bad"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, domain.EPROCESSOR, domain.ErrorCode(err))
			assert.Equal(t, tt.wantMessage, domain.ErrorMessage(err))

			// The customer was created and is not cleaned up.
			assert.Len(t, provider.Customers, 1)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OrphanCustomers))
		})
	}
}

func TestIntakeThenWebhook_LinksUser(t *testing.T) {
	provider := billing.NewMockProvider()
	provider.WebhookSecret = testSecret
	svc, _ := newIntake(provider)
	store := memory.NewSubscriptionStore()

	r, err := NewReconciler(ReconcilerConfig{
		Verifier: provider,
		Store:    store,
		Logger:   zerolog.New(io.Discard),
	})
	require.NoError(t, err)

	res, err := svc.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		Email: "ada@example.com", Name: "Ada", PriceID: "price_1", UserID: "user-7",
	})
	require.NoError(t, err)

	// The processor echoes the subscription's metadata on every event.
	created := provider.Subscriptions[res.SubscriptionID]
	payload := billingtest.SubscriptionEvent{
		EventID:        "evt_created",
		Type:           domain.EventSubscriptionCreated,
		SubscriptionID: created.ID,
		CustomerID:     created.CustomerID,
		Status:         string(created.Status),
		Metadata:       created.Metadata,
	}.Payload()

	_, err = r.HandleEvent(context.Background(), payload, billingtest.Sign(payload, testSecret))
	require.NoError(t, err)

	stored, err := store.FindByUserID(context.Background(), "user-7")
	require.NoError(t, err)
	assert.Equal(t, res.SubscriptionID, stored.ProcessorSubscriptionID)
	assert.Equal(t, res.CustomerID, stored.ProcessorCustomerID)
	assert.Equal(t, domain.SubscriptionStatusIncomplete, stored.Status)
}
