package llm

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies why a call to an endpoint failed.
type FailureKind string

const (
	// FailureNotFound marks an endpoint that structurally does not exist
	// (404). Permanent: once recorded it is never re-probed.
	FailureNotFound FailureKind = "not_found"
	// FailureQuotaExhausted marks an endpoint whose quota allotment is spent.
	// Recovery is slow, so its cache entry lives the longest.
	FailureQuotaExhausted FailureKind = "quota_exhausted"
	// FailureRateLimited marks transient throttling; recovers within minutes.
	FailureRateLimited FailureKind = "rate_limited"
	// FailureOther is any unclassified remote or transport error.
	FailureOther FailureKind = "other"
)

// ExpiringKinds lists the failure kinds whose cache entries carry a TTL,
// in a stable order used by snapshots and bucket resets.
var ExpiringKinds = []FailureKind{FailureQuotaExhausted, FailureRateLimited, FailureOther}

var notFoundMarkers = []string{"404", "not_found", "not found", "is not found"}

var rateLimitMarkers = []string{"429", "resource_exhausted", "quota", "rate limit", "too many requests"}

const quotaExhaustedMarker = "limit: 0"

// Classify maps a backend error onto a FailureKind by pattern-matching its
// text. Priority order: explicit not-found marker, then the zero-quota
// marker, then generic rate/quota markers, then other.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureOther
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range notFoundMarkers {
		if strings.Contains(msg, marker) {
			return FailureNotFound
		}
	}
	if strings.Contains(msg, quotaExhaustedMarker) {
		return FailureQuotaExhausted
	}
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return FailureRateLimited
		}
	}
	return FailureOther
}

// Error codes for terminal orchestration failures. Endpoint-local failures
// are never surfaced as errors, they advance the Executor to the next
// candidate; only these request-fatal conditions propagate.
const (
	ErrCodeNoEndpoints        = "NO_ENDPOINTS_AVAILABLE"
	ErrCodeAllEndpointsFailed = "ALL_ENDPOINTS_FAILED"
)

// Error is a tagged orchestration failure.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a tagged orchestration error.
func NewError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// IsOrchestrationError extracts the tagged error from an error chain.
func IsOrchestrationError(err error) (*Error, bool) {
	var oerr *Error
	if errors.As(err, &oerr) {
		return oerr, true
	}
	return nil, false
}
