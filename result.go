package persuader

import (
	"fmt"
	"time"
)

// Outcome is the final disposition of a pipeline run.
type Outcome string

const (
	// OutcomeSuccess means a schema-valid value was produced.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure means the run ended without a valid value.
	OutcomeFailure Outcome = "failure"
)

// FailureReason distinguishes why a run failed, so callers know whether
// re-invocation later is worthwhile.
type FailureReason string

const (
	// FailureNone is set on successful results.
	FailureNone FailureReason = ""

	// FailureExhaustedRetries means the budget ran out; the last attempt's
	// full error detail is attached and a later re-invocation may succeed.
	FailureExhaustedRetries FailureReason = "exhausted_retries"

	// FailureFatal means a fatal provider or session error aborted the run;
	// re-invocation will fail the same way until the cause is fixed.
	FailureFatal FailureReason = "fatal"
)

// Result is the single outcome produced for each Request.
type Result struct {
	// Outcome is success or failure.
	Outcome Outcome

	// Value is the decoded, schema-valid value. Only set on success, and
	// guaranteed to have passed the schema capability by construction.
	Value any

	// RawValue is the raw response text the Value was decoded from.
	RawValue string

	// Errors carries the final attempt's validation errors on
	// FailureExhaustedRetries, nil otherwise.
	Errors []*FieldError

	// Err holds the fatal provider or session error on FailureFatal,
	// nil otherwise.
	Err error

	// Attempts is the ordered attempt list, indices strictly increasing
	// from 0.
	Attempts []*Attempt

	// SessionID is the session used, empty for sessionless runs.
	SessionID string

	// Metadata aggregates timing, usage, and failure classification.
	Metadata Metadata
}

// Metadata aggregates run-level accounting.
type Metadata struct {
	// StartedAt is the first attempt's start time.
	StartedAt time.Time

	// CompletedAt is when the result was finalized.
	CompletedAt time.Time

	// Duration is CompletedAt minus StartedAt.
	Duration time.Duration

	// TotalUsage sums token usage across all attempts, including
	// enhancement rounds.
	TotalUsage TokenUsage

	// EstimatedCost is the run cost in USD under the configured rates,
	// 0 when no rates are configured for the model.
	EstimatedCost float64

	// FailureReason classifies failures; FailureNone on success.
	FailureReason FailureReason

	// EnhancementRounds is how many improvement rounds actually ran.
	EnhancementRounds int
}

// AttemptCount returns the number of attempts made, enhancement rounds
// excluded.
func (r *Result) AttemptCount() int {
	return len(r.Attempts)
}

// AsError converts a failure Result into an error for callers that prefer
// the error idiom. Returns nil on success. Exhausted-retry failures wrap
// ErrRetriesExhausted and carry the final attempt's field errors; fatal
// failures return the aborting error.
func (r *Result) AsError() error {
	switch r.Metadata.FailureReason {
	case FailureExhaustedRetries:
		return fmt.Errorf("%w: %w", ErrRetriesExhausted, &SchemaValidationError{Errors: r.Errors})
	case FailureFatal:
		return r.Err
	default:
		return nil
	}
}
