package casemgmt

import (
	"errors"
	"fmt"

	"ivory/pkg/platform/sentinel"
)

// ErrorCategory is the normalized failure taxonomy of case API calls.
type ErrorCategory string

const (
	// ErrorTimeout indicates the call did not complete in time.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorOutage indicates a 5xx response, a transport failure or an open circuit.
	ErrorOutage ErrorCategory = "outage"

	// ErrorRateLimited indicates a 429 from the case system or the local limiter.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorAuthentication indicates the service token was rejected.
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorRejected indicates the case system refused the payload (4xx).
	ErrorRejected ErrorCategory = "rejected"

	// ErrorBadData indicates an unparseable response.
	ErrorBadData ErrorCategory = "bad_data"
)

var ErrCircuitOpen = errors.New("circuit open")

// Error wraps a failed case API call with what operators need to find it.
type Error struct {
	Op         string
	Category   ErrorCategory
	Status     int
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("case api %s [%s] status=%d: %v", e.Op, e.Category, e.Status, e.Underlying)
	}
	return fmt.Sprintf("case api %s [%s] status=%d", e.Op, e.Category, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is makes every case API failure match sentinel.ErrUnavailable: the wizard
// treats them all as "problem with the service".
func (e *Error) Is(target error) bool {
	return target == sentinel.ErrUnavailable
}

// Retryable reports whether a later attempt could succeed.
func (e *Error) Retryable() bool {
	return e.Category == ErrorTimeout || e.Category == ErrorOutage || e.Category == ErrorRateLimited
}

// CategoryOf extracts the category, or "" for non-case errors.
func CategoryOf(err error) ErrorCategory {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}

// StatusOf extracts the HTTP status, or 0.
func StatusOf(err error) int {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Status
	}
	return 0
}
