package llm

import "time"

// Defaults for the orchestration layer. Tuned for the free tier of the
// Gemini API, where aggressive pacing is cheaper than tripping 429s.
const (
	// DefaultMinInterval is the minimum spacing between outbound calls.
	DefaultMinInterval = 5 * time.Second
	// DefaultRateLimitCooldown is slept after a rate-limited failure before
	// the next candidate endpoint is tried.
	DefaultRateLimitCooldown = 10 * time.Second
	// DefaultMaxRounds caps the number of request/response rounds in one
	// tool-calling conversation.
	DefaultMaxRounds = 3
	// DefaultTemperature keeps tool-argument extraction deterministic.
	DefaultTemperature = 0.1

	// DefaultWindowSize and DefaultWindowHorizon bound the pacer's
	// diagnostics window.
	DefaultWindowSize    = 15
	DefaultWindowHorizon = 60 * time.Second
)

// TTLConfig holds the per-kind expiry for cached endpoint failures.
// Quota exhaustion recovers slowest; rate limits recover within minutes;
// not-found never expires and has no entry here.
type TTLConfig struct {
	QuotaExhausted time.Duration
	RateLimited    time.Duration
	Other          time.Duration
}

// DefaultTTLConfig mirrors the observed recovery behavior of the remote API.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		QuotaExhausted: time.Hour,
		RateLimited:    5 * time.Minute,
		Other:          30 * time.Minute,
	}
}

// TTL returns the expiry for a kind, or 0 for kinds without one.
func (c TTLConfig) TTL(kind FailureKind) time.Duration {
	switch kind {
	case FailureQuotaExhausted:
		return c.QuotaExhausted
	case FailureRateLimited:
		return c.RateLimited
	case FailureOther:
		return c.Other
	default:
		return 0
	}
}

// DefaultPrimaryPriorities orders the preferred primary endpoints by
// substring match against the discovered display names.
var DefaultPrimaryPriorities = []string{
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-2.0-flash",
	"gemini-2.0-flash-001",
	"gemini-2.0-flash-exp",
}

// DefaultFallbackPriorities orders the preferred fallback endpoints.
var DefaultFallbackPriorities = []string{
	"gemini-2.0-flash",
	"gemini-2.5-pro",
	"gemini-2.0-flash-001",
	"gemini-flash-latest",
	"gemini-pro-latest",
}

// Hard defaults used when discovery fails or matches nothing.
const (
	DefaultPrimaryEndpoint  = "models/gemini-2.5-flash"
	DefaultFallbackEndpoint = "models/gemini-2.0-flash"
)
