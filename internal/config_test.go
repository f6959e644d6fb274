package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// missingEnvFile points at a file that does not exist so no .env on the
// developer machine leaks into the test.
func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func mockEnv() map[string]string {
	return map[string]string{
		"ENV":                   "dev",
		"BILLING_PROVIDER":      "mock",
		"STORE_BACKEND":         "memory",
		"LEDGER_BACKEND":        "memory",
		"STRIPE_SECRET_KEY":     "",
		"STRIPE_WEBHOOK_SECRET": "",
		"SENTRY_ENABLED":        "false",
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	setEnv(t, mockEnv())

	cfg, err := NewConfig(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, uint16(3000), cfg.Port)
	assert.Equal(t, "strict", cfg.Webhook.AckMode)
	assert.False(t, cfg.Webhook.RejectStale)
	assert.Equal(t, int64(1<<20), cfg.Webhook.MaxBodySize)
	assert.Equal(t, 5*time.Minute, cfg.Stripe.WebhookTolerance)
	assert.Equal(t, 2, cfg.Stripe.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Stripe.Timeout)
	assert.Equal(t, 72*time.Hour, cfg.Ledger.TTL)
	assert.Equal(t, "payments.subscription", cfg.NATS.SubjectPrefix)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 10.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.False(t, cfg.NeedsDatabase())
}

func TestNewConfig_ReadsEnvironment(t *testing.T) {
	env := mockEnv()
	env["BILLING_PROVIDER"] = "stripe"
	env["STRIPE_SECRET_KEY"] = "sk_test_123"
	env["STRIPE_WEBHOOK_SECRET"] = "whsec_123"
	env["STORE_BACKEND"] = "postgres"
	env["LEDGER_BACKEND"] = "redis"
	env["WEBHOOK_ACK_MODE"] = "FAITHFUL"
	env["RECONCILE_REJECT_STALE"] = "true"
	env["PORT"] = "8080"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example.com, https://b.example.com,"
	env["ADMIN_API_TOKEN"] = "secret"
	setEnv(t, env)

	cfg, err := NewConfig(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, uint16(8080), cfg.Port)
	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	assert.Equal(t, "faithful", cfg.Webhook.AckMode)
	assert.True(t, cfg.Webhook.RejectStale)
	assert.Equal(t, "redis", cfg.Ledger.Backend)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "secret", cfg.AdminAPIToken)
	assert.True(t, cfg.NeedsDatabase())
}

func TestNewConfig_LoadsEnvFile(t *testing.T) {
	setEnv(t, mockEnv())
	t.Setenv("NATS_SUBJECT_PREFIX", "")
	os.Unsetenv("NATS_SUBJECT_PREFIX")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("NATS_SUBJECT_PREFIX=billing.sub\n"), 0o600))

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "billing.sub", cfg.NATS.SubjectPrefix)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown env", map[string]string{"ENV": "staging"}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "trace"}},
		{"unknown ack mode", map[string]string{"WEBHOOK_ACK_MODE": "lenient"}},
		{"unknown store", map[string]string{"STORE_BACKEND": "sqlite"}},
		{"unknown ledger", map[string]string{"LEDGER_BACKEND": "etcd"}},
		{"stripe without key", map[string]string{"BILLING_PROVIDER": "stripe", "STRIPE_WEBHOOK_SECRET": "whsec_1"}},
		{"stripe without webhook secret", map[string]string{"BILLING_PROVIDER": "stripe", "STRIPE_SECRET_KEY": "sk_test_1"}},
		{"mock provider in prod", map[string]string{"ENV": "prod"}},
		{"sentry without dsn", map[string]string{"SENTRY_ENABLED": "true", "SENTRY_DSN": ""}},
		{"zero rate limit", map[string]string{"RATE_LIMIT_RPS": "0"}},
		{"sample rate above one", map[string]string{"SENTRY_SAMPLE_RATE": "1.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, mockEnv())
			setEnv(t, tt.env)

			cfg, err := NewConfig(missingEnvFile(t))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
}
