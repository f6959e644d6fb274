package billing

import (
	"errors"
	"strings"
	"time"
)

// Defaults applied by NewStripeProvider when the corresponding field is zero.
const (
	DefaultWebhookTolerance = 5 * time.Minute
	DefaultTimeout          = 30 * time.Second
)

// StripeConfig contains configuration for the Stripe provider.
type StripeConfig struct {
	// APIKey is the Stripe secret key (sk_test_... or sk_live_...).
	// It is injected into the client; nothing is set process-wide.
	APIKey string

	// WebhookSecret is the webhook signing secret (whsec_...)
	WebhookSecret string

	// WebhookTolerance bounds the age of a signed webhook timestamp.
	// Default: 5m
	WebhookTolerance time.Duration

	// MaxRetries is the maximum number of network retries for API calls.
	// Default: 2 (the SDK default)
	MaxRetries int

	// Timeout is the HTTP timeout for Stripe API calls.
	// Default: 30s
	Timeout time.Duration
}

// Validate checks that required configuration is present.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("stripe: API key is required")
	}
	if c.WebhookSecret == "" {
		return errors.New("stripe: webhook secret is required")
	}
	if c.MaxRetries < 0 {
		return errors.New("stripe: max retries must not be negative")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(c.APIKey, "sk_test_") || strings.HasPrefix(c.APIKey, "rk_test_")
}
