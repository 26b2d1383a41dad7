package ngl

import "fmt"

// Reason classifies the result of one submission attempt.
type Reason int

const (
	// ReasonSuccess means the message was accepted.
	ReasonSuccess Reason = iota

	// ReasonRateLimited means the service answered 429. This is an
	// expected, recoverable condition, not a transport error.
	ReasonRateLimited

	// ReasonTimeout means the attempt exceeded the request timeout.
	ReasonTimeout

	// ReasonConnectionError means the connection could not be
	// established or was dropped.
	ReasonConnectionError

	// ReasonHTTPStatus means the service answered with an unexpected
	// status code.
	ReasonHTTPStatus

	// ReasonOtherError covers any remaining transport failure.
	ReasonOtherError
)

// String returns the reason name for logging.
func (r Reason) String() string {
	switch r {
	case ReasonSuccess:
		return "success"
	case ReasonRateLimited:
		return "rate_limited"
	case ReasonTimeout:
		return "timeout"
	case ReasonConnectionError:
		return "connection_error"
	case ReasonHTTPStatus:
		return "http_status"
	case ReasonOtherError:
		return "other_error"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of a single submission attempt.
// It is produced by the transport and consumed immediately by the
// submission loop; it is never persisted.
type Outcome struct {
	Success    bool
	Reason     Reason
	StatusCode int    // set when Reason is ReasonHTTPStatus
	Detail     string // set when Reason is ReasonOtherError
}

// String returns a short human-readable status for progress lines.
func (o Outcome) String() string {
	switch o.Reason {
	case ReasonSuccess:
		return "success"
	case ReasonRateLimited:
		return "rate limited (429)"
	case ReasonTimeout:
		return "request timeout"
	case ReasonConnectionError:
		return "connection error"
	case ReasonHTTPStatus:
		return fmt.Sprintf("status code: %d", o.StatusCode)
	default:
		return fmt.Sprintf("request error: %s", o.Detail)
	}
}

// Accepted returns an outcome for a delivered message.
func Accepted() Outcome {
	return Outcome{Success: true, Reason: ReasonSuccess}
}

// RateLimited returns an outcome for a 429 response.
func RateLimited() Outcome {
	return Outcome{Reason: ReasonRateLimited}
}

// TimedOut returns an outcome for a request timeout.
func TimedOut() Outcome {
	return Outcome{Reason: ReasonTimeout}
}

// ConnectionFailed returns an outcome for a connection-level failure.
func ConnectionFailed() Outcome {
	return Outcome{Reason: ReasonConnectionError}
}

// UnexpectedStatus returns an outcome for any other HTTP status.
func UnexpectedStatus(code int) Outcome {
	return Outcome{Reason: ReasonHTTPStatus, StatusCode: code}
}

// RequestError returns an outcome for any remaining transport failure.
func RequestError(detail string) Outcome {
	return Outcome{Reason: ReasonOtherError, Detail: detail}
}
