package persuader

import "time"

// Attempt is one prompt/response/validation cycle within a pipeline run.
// Attempts are created once per loop iteration and never mutated after
// creation; they are retained only inside the Result.
type Attempt struct {
	// Index is 0-based and strictly increasing within a run.
	Index int

	// Prompt is the exact prompt text sent to the provider.
	Prompt string

	// RawResponse is the unmodified provider response text.
	RawResponse string

	// Errors holds the validation outcome: nil or empty means the decoded
	// value passed the schema.
	Errors []*FieldError

	// Err records a provider-level failure for this attempt, nil otherwise.
	Err error

	// Timestamp is when the attempt started.
	Timestamp time.Time

	// Duration covers the provider call plus validation.
	Duration time.Duration

	// Usage is the provider-reported token accounting, nil when absent.
	Usage *TokenUsage
}

// Valid reports whether this attempt produced a schema-valid value.
func (a *Attempt) Valid() bool {
	return a.Err == nil && len(a.Errors) == 0
}
