package persuader

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind tags provider and session failures at the point they are raised,
// so retry classification is a lookup on the tag rather than a text search.
type ErrorKind string

const (
	// Retryable kinds. Transient conditions that warrant another attempt.

	// ErrKindTimeout indicates a per-call deadline was exceeded.
	ErrKindTimeout ErrorKind = "timeout"

	// ErrKindRateLimit indicates the provider throttled the call.
	ErrKindRateLimit ErrorKind = "rate_limit"

	// ErrKindNetwork indicates a transient network fault.
	ErrKindNetwork ErrorKind = "network"

	// ErrKindTransientExit indicates the provider process exited with a
	// signal recognized as transient (e.g. a restartable subprocess crash).
	ErrKindTransientExit ErrorKind = "transient_exit"

	// Fatal kinds. The run is aborted immediately regardless of budget.

	// ErrKindAuth indicates authentication or authorization failure.
	ErrKindAuth ErrorKind = "authentication"

	// ErrKindInvalidModel indicates an unsupported or unknown model.
	ErrKindInvalidModel ErrorKind = "invalid_model"

	// ErrKindResponseTooLarge indicates the response exceeded the output cap.
	ErrKindResponseTooLarge ErrorKind = "response_too_large"

	// ErrKindUnknown is the conservative default: not retried.
	ErrKindUnknown ErrorKind = "unknown"
)

// Retryable reports whether the kind warrants another attempt.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrKindTimeout, ErrKindRateLimit, ErrKindNetwork, ErrKindTransientExit:
		return true
	default:
		return false
	}
}

// Fatal reports whether the kind aborts the run regardless of remaining budget.
func (k ErrorKind) Fatal() bool {
	switch k {
	case ErrKindAuth, ErrKindInvalidModel, ErrKindResponseTooLarge:
		return true
	default:
		return false
	}
}

// Sentinel errors shared across the package.
var (
	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("persuader: provider returned empty response")

	// ErrSessionNotFound indicates an unknown session identifier.
	ErrSessionNotFound = errors.New("persuader: session not found")

	// ErrRetriesExhausted indicates the retry budget ran out without a
	// schema-valid response.
	ErrRetriesExhausted = errors.New("persuader: retry budget exhausted")
)

// ProviderError captures a failed provider invocation with its classification
// tag. Providers attach the kind when they raise the failure.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration // provider-specified pacing hint, 0 if none
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %s: %s (%s): %v", e.Provider, e.Message, e.Kind, e.Cause)
	}
	return fmt.Sprintf("provider %s: %s (%s)", e.Provider, e.Message, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Retryable reports whether this failure warrants another attempt.
func (e *ProviderError) Retryable() bool { return e.Kind.Retryable() }

// ParseError indicates the raw provider response could not be decoded into a
// candidate value. It is recovered locally: the pipeline converts it into
// corrective-prompt content and consumes one attempt.
type ParseError struct {
	Raw   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// SchemaValidationError indicates a decodable value that failed schema checks.
// It carries the ordered field errors and, like ParseError, is recovered
// locally into a corrective prompt.
type SchemaValidationError struct {
	Errors []*FieldError
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation failed with %d field error(s)", len(e.Errors))
}

// SessionError indicates a session create/validate/destroy failure. It
// propagates immediately as pipeline failure without further attempts.
type SessionError struct {
	SessionID string
	Op        string // "create", "validate", "destroy", "preload"
	Cause     error
}

func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("session %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("session %s failed for %s: %v", e.Op, e.SessionID, e.Cause)
}

func (e *SessionError) Unwrap() error { return e.Cause }

// ConfigurationError indicates invalid caller options. It is detected before
// any provider call and never retried.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// Classify resolves the error kind for any error reaching the retry
// controller. Typed tags attached at the raise point win; untyped errors
// from foreign transports fall back to conservative ErrKindUnknown.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrKindUnknown
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Kind
	}

	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return Classify(sessErr.Cause)
	}

	return ErrKindUnknown
}
