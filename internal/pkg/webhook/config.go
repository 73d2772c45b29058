package webhook

import (
	"strings"
	"time"

	"github.com/ManuelReschke/OnlyOne/internal/pkg/env"
)

// SignatureMode decides how strictly inbound signatures are enforced.
type SignatureMode string

const (
	// ModeStrict rejects deliveries without a valid signature.
	ModeStrict SignatureMode = "strict"
	// ModeLenient accepts unsigned deliveries but still rejects a signature
	// that does not match.
	ModeLenient SignatureMode = "lenient"
)

const (
	DefaultStaleAfter     = 15 * time.Minute
	DefaultProcessTimeout = 2 * time.Minute
)

type Config struct {
	Mode           SignatureMode
	Secret         string
	SiteBaseURL    string
	StaleAfter     time.Duration
	ProcessTimeout time.Duration
}

// LoadConfig loads the webhook configuration from environment variables.
// Unset mode defaults to strict outside of dev.
func LoadConfig() Config {
	mode := SignatureMode(strings.ToLower(strings.TrimSpace(env.GetEnv("WEBHOOK_SIGNATURE_MODE", ""))))
	if mode != ModeStrict && mode != ModeLenient {
		mode = ModeStrict
		if env.IsDev() {
			mode = ModeLenient
		}
	}
	return Config{
		Mode:           mode,
		Secret:         strings.TrimSpace(env.GetEnv("PRINTIFY_WEBHOOK_SECRET", "")),
		SiteBaseURL:    strings.TrimRight(strings.TrimSpace(env.GetEnv("SITE_BASE_URL", "http://localhost:4000")), "/"),
		StaleAfter:     env.GetDuration("RECONCILE_STALE_AFTER", DefaultStaleAfter),
		ProcessTimeout: env.GetDuration("WEBHOOK_PROCESS_TIMEOUT", DefaultProcessTimeout),
	}
}
