package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/paysync/internal/billing"
	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/memory"
	"github.com/dukerupert/paysync/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCreator records the request and returns a fixed result.
type mockCreator struct {
	got service.CreateSubscriptionRequest
	res *service.IntakeResult
	err error
}

func (m *mockCreator) CreateSubscription(_ context.Context, req service.CreateSubscriptionRequest) (*service.IntakeResult, error) {
	m.got = req
	return m.res, m.err
}

func subscribe(h *SubscribeHandler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/subscribe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)
	return rec
}

func TestSubscribe_PlainTextResponse(t *testing.T) {
	m := &mockCreator{res: &service.IntakeResult{SubscriptionID: "sub_123", CustomerID: "cus_1", Status: domain.SubscriptionStatusIncomplete}}
	h := NewSubscribeHandler(m)

	rec := subscribe(h, `{"email":"a@b.c","name":"Ada","priceId":"price_1","userId":"u1"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sub_123", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	assert.Equal(t, service.CreateSubscriptionRequest{Email: "a@b.c", Name: "Ada", PriceID: "price_1", UserID: "u1"}, m.got)
}

func TestSubscribe_JSONResponse(t *testing.T) {
	m := &mockCreator{res: &service.IntakeResult{
		SubscriptionID: "sub_123",
		CustomerID:     "cus_1",
		Status:         domain.SubscriptionStatusIncomplete,
		ClientSecret:   "pi_1_secret_2",
	}}
	h := NewSubscribeHandler(m)

	rec := subscribe(h, `{"email":"a@b.c","name":"Ada","priceId":"price_1"}`, map[string]string{
		"Accept":             "application/json",
		IdempotencyKeyHeader: " order-42 ",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SubscribeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, SubscribeResponse{
		SubscriptionID: "sub_123",
		CustomerID:     "cus_1",
		Status:         "incomplete",
		ClientSecret:   "pi_1_secret_2",
	}, resp)
	assert.Equal(t, "order-42", m.got.IdempotencyKey)
}

func TestSubscribe_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		headers    map[string]string
		err        error
		wantStatus int
		wantCode   string
		wantCalled bool
	}{
		{
			name:       "malformed json",
			body:       `{"email":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "empty body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "non-string field",
			body:       `{"email":42}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "idempotency key too long",
			body:       `{}`,
			headers:    map[string]string{IdempotencyKeyHeader: strings.Repeat("k", maxIdempotencyKeyLength+1)},
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "processor failure",
			body:       `{"email":"a@b.c","priceId":"price_bad"}`,
			err:        domain.Processor(errors.New("No such price: 'price_bad'"), "intake.create_subscription"),
			wantStatus: http.StatusBadGateway,
			wantCode:   domain.EPROCESSOR,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockCreator{err: tt.err}
			h := NewSubscribeHandler(m)

			headers := map[string]string{"Accept": "application/json"}
			for k, v := range tt.headers {
				headers[k] = v
			}
			rec := subscribe(h, tt.body, headers)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)

			if tt.wantCalled {
				assert.Equal(t, "No such price: 'price_bad'", resp.Error.Message)
			} else {
				assert.Empty(t, m.got.PriceID)
			}
		})
	}
}

func TestSubscribe_WithIntakeService(t *testing.T) {
	provider := billing.NewMockProvider()
	intake := service.NewIntakeService(provider, nil, zerolog.New(io.Discard))
	h := NewSubscribeHandler(intake)

	rec := subscribe(h, `{"email":"a@b.c","name":"Ada","priceId":"price_1","userId":"u1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sub, ok := provider.Subscriptions[rec.Body.String()]
	require.True(t, ok)
	assert.Equal(t, "u1", sub.Metadata[billing.MetadataUserID])
}

func TestSubscriptionHandler_GetByUser(t *testing.T) {
	store := memory.NewSubscriptionStore()
	_, err := store.Save(context.Background(), &domain.Subscription{
		UserID:                  "u1",
		ProcessorSubscriptionID: "sub_1",
		ProcessorCustomerID:     "cus_1",
		Status:                  domain.SubscriptionStatusActive,
	})
	require.NoError(t, err)

	h := NewSubscriptionHandler(store)

	tests := []struct {
		name       string
		userID     string
		wantStatus int
	}{
		{"found", "u1", http.StatusOK},
		{"not found", "u2", http.StatusNotFound},
		{"missing id", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/users/"+tt.userID, nil)
			req.Header.Set("Accept", "application/json")
			req.SetPathValue(UserIDParam, tt.userID)
			rec := httptest.NewRecorder()

			h.GetByUser(rec, req)
			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				var sub domain.Subscription
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&sub))
				assert.Equal(t, "sub_1", sub.ProcessorSubscriptionID)
				assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
			}
		})
	}
}
