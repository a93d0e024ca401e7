package stripe

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every call made to the Stripe API.
const DefaultTimeout = 30 * time.Second

// Config holds the Stripe client configuration
type Config struct {
	APIKey        string `yaml:"api_key" json:"api_key"`
	WebhookSecret string `yaml:"webhook_secret" json:"webhook_secret"`
	// APIURL overrides the Stripe API base URL. Used to point the client at
	// stripe-mock or at a fake server in tests.
	APIURL string `yaml:"api_url" json:"api_url"`
	// HTTPClient is optional, a client with DefaultTimeout is used otherwise.
	HTTPClient *http.Client `yaml:"-" json:"-"`
}

// Validate checks that the configuration can be used to build a client.
func (c *Config) Validate() error {
	if c == nil || strings.TrimSpace(c.APIKey) == "" {
		return ErrInvalidConfiguration
	}
	return nil
}

func (c *Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}
