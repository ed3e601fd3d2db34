package orchestrator

import (
	"errors"
	"fmt"
)

// TransportError covers network failures, timeouts, and non-2xx statuses.
// The call never yielded a usable body, so no partial results exist.
type TransportError struct {
	StatusCode int // zero when the request never completed
	Timeout    bool
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return "orchestrator request timed out"
	case e.StatusCode != 0:
		return fmt.Sprintf("orchestrator returned status %d", e.StatusCode)
	default:
		return fmt.Sprintf("orchestrator request failed: %v", e.Err)
	}
}

// Unwrap allows errors.Is/As to reach the underlying cause
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError signals a response body that violates the orchestrator contract:
// not JSON, no recognizable responses sequence, or a record without a model.
type ParseError struct {
	Reason string
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid orchestrator response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid orchestrator response: %s", e.Reason)
}

// Unwrap allows errors.Is/As to reach the underlying cause
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsTimeout reports whether err is a TransportError caused by a timeout
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Timeout
}

// IsParseError reports whether err is a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
