package printify

import (
	"strings"
	"time"

	"github.com/ManuelReschke/OnlyOne/internal/pkg/env"
)

const (
	DefaultBaseURL   = "https://api.printify.com/v1"
	DefaultUserAgent = "OnlyOne/1.0"
	DefaultTimeout   = 30 * time.Second
)

// Config holds the Printify API settings
type Config struct {
	APIToken  string
	ShopID    string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Retry     RetryPolicy
}

// LoadConfig loads the Printify configuration from environment variables
func LoadConfig() Config {
	return Config{
		APIToken:  strings.TrimSpace(env.GetEnv("PRINTIFY_API_TOKEN", "")),
		ShopID:    strings.TrimSpace(env.GetEnv("PRINTIFY_SHOP_ID", "")),
		BaseURL:   strings.TrimRight(strings.TrimSpace(env.GetEnv("PRINTIFY_API_BASE_URL", DefaultBaseURL)), "/"),
		UserAgent: env.GetEnv("PRINTIFY_USER_AGENT", DefaultUserAgent),
		Timeout:   env.GetDuration("PRINTIFY_TIMEOUT", DefaultTimeout),
		Retry: RetryPolicy{
			MaxAttempts: env.GetInt("PRINTIFY_RETRY_MAX_ATTEMPTS", DefaultRetryPolicy.MaxAttempts),
			BaseDelay:   env.GetDuration("PRINTIFY_RETRY_BASE_DELAY", DefaultRetryPolicy.BaseDelay),
			MaxDelay:    env.GetDuration("PRINTIFY_RETRY_MAX_DELAY", DefaultRetryPolicy.MaxDelay),
			Jitter:      DefaultRetryPolicy.Jitter,
		},
	}
}

// IsConfigured reports whether the credentials needed for shop calls are present
func (c Config) IsConfigured() bool {
	return c.APIToken != "" && c.ShopID != ""
}
