package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/paysync/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

// =============================================================================
// REQUEST ID / LOGGER / CLIENT IP
// =============================================================================

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"reused when present", "req-abc", true},
		{"replaced when oversized", strings.Repeat("x", maxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inContext string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				inContext = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, inContext)
			assert.Equal(t, inContext, rec.Header().Get(RequestIDHeader))
			if tt.keep {
				assert.Equal(t, tt.incoming, inContext)
			} else {
				assert.NotEqual(t, tt.incoming, inContext)
			}
		})
	}
}

func TestWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	h := WithClientIP()(RequestID(WithRequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
	}))))

	req := httptest.NewRequest(http.MethodPost, "/api/payments/subscribe", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "inside", line["message"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/api/payments/subscribe", line["path"])
	assert.Equal(t, "203.0.113.9", line["client_ip"])
}

func TestGetLogger_Fallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	fallback := zerolog.New(io.Discard).With().Str("k", "v").Logger()
	assert.Same(t, &fallback, GetLogger(req.Context(), &fallback))
	assert.Equal(t, zerolog.Disabled, GetLogger(req.Context()).GetLevel())
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	h := WithRequestLogger(base)(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request", line["message"])
	assert.Equal(t, "warn", line["level"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
	assert.Contains(t, line, "duration")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"forwarded for first entry", "198.51.100.1, 10.0.0.1", "", "10.0.0.2:1234", "198.51.100.1"},
		{"real ip", "", "198.51.100.2", "10.0.0.2:1234", "198.51.100.2"},
		{"remote addr", "", "", "192.0.2.7:5555", "192.0.2.7"},
		{"remote addr without port", "", "", "192.0.2.8", "192.0.2.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}

// =============================================================================
// LIMITS
// =============================================================================

func TestMaxBodySize(t *testing.T) {
	t.Run("declared length over limit rejected", func(t *testing.T) {
		h := MaxBodySize(8)(okHandler)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), domain.ETOOLARGE)
	})

	t.Run("undeclared length fails on read", func(t *testing.T) {
		var readErr error
		h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, readErr = io.ReadAll(r.Body)
		}))
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
		req.ContentLength = -1
		h.ServeHTTP(httptest.NewRecorder(), req)

		var maxErr *http.MaxBytesError
		assert.ErrorAs(t, readErr, &maxErr)
	})

	t.Run("within limit passes", func(t *testing.T) {
		h := MaxBodySize(64)(okHandler)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstSize:         2,
		IdleTimeout:       time.Hour,
		KeyFunc:           GetClientIP,
	})
	t.Cleanup(rl.Stop)

	h := rl.Middleware(okHandler)
	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1").Code)
	assert.Equal(t, http.StatusOK, send("192.0.2.1").Code)

	limited := send("192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	// Keys are independent.
	assert.Equal(t, http.StatusOK, send("192.0.2.2").Code)
}

func TestRateLimiter_EvictsIdleKeys(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTimeout: time.Hour})
	t.Cleanup(rl.Stop)

	now := time.Now()
	rl.now = func() time.Time { return now }
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	now = now.Add(2 * time.Hour)
	rl.evictIdle()

	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()

	rl.Stop()
	rl.Stop()
}

// =============================================================================
// METRICS
// =============================================================================

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/api/payments/subscribe":         "/api/payments/subscribe",
		"/api/webhooks/stripe":            "/api/webhooks/stripe",
		"/health":                         "/health",
		"/api/subscriptions/users/u-123":  "/api/subscriptions/users/:userID",
		"/api/subscriptions/users/":       "unmatched",
		"/api/subscriptions/users/a/b":    "unmatched",
		"/wp-login.php":                   "unmatched",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizePath(in), in)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/subscriptions/users/u1", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/subscriptions/users/:userID", "201")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requestsInFlight))
}

// =============================================================================
// HEADERS / AUTH
// =============================================================================

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(DefaultSecurityHeadersConfig())(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(okHandler)

	t.Run("allowed origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/payments/subscribe", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	})

	t.Run("other origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/subscribe", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"valid", "s3cret", "Bearer s3cret", http.StatusOK},
		{"case insensitive scheme", "s3cret", "bearer s3cret", http.StatusOK},
		{"wrong token", "s3cret", "Bearer other", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"basic scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"empty configured token never matches", "", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			BearerToken(tt.token)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
