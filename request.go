package persuader

import (
	"github.com/shaneholloman/persuader/schema"
)

// Request describes one pipeline invocation. A Request is created per call
// and discarded after completion; it is never mutated by the pipeline.
type Request struct {
	// Schema is the output contract. Required.
	Schema *schema.Schema

	// Input is the payload the model should transform into structured
	// output. Required unless SessionID names a preloaded session.
	Input string

	// Context is background text prepended to the initial prompt. Ignored
	// when SessionID is set (the session already carries its context).
	Context string

	// Lens is an optional perspective or emphasis instruction, e.g.
	// "focus on financial risk".
	Lens string

	// Retries is the corrective-attempt budget after the first attempt.
	// 0 means exactly one attempt with no correction loop. Must be >= 0.
	Retries int

	// Model is an optional model hint passed to the provider.
	Model string

	// SessionID reuses an existing provider session when non-empty.
	SessionID string

	// ExampleOutput is an optional example of desired output, embedded in
	// the initial prompt and used by the default enhancement evaluator.
	ExampleOutput string

	// Temperature overrides the provider default when non-nil.
	Temperature *float64

	// MaxOutputTokens caps the response size. 0 means provider default.
	MaxOutputTokens int

	// Enhancement configures optional bounded improvement rounds after a
	// baseline success. Zero value disables enhancement.
	Enhancement EnhancementConfig
}

// validate checks caller options before any provider call. Violations are
// ConfigurationError and fail fast, never retried.
func (r *Request) validate() error {
	if r == nil {
		return &ConfigurationError{Field: "request", Message: "must not be nil"}
	}
	if r.Schema == nil {
		return &ConfigurationError{Field: "Schema", Message: "must not be nil"}
	}
	if r.Input == "" && r.SessionID == "" {
		return &ConfigurationError{Field: "Input", Message: "must not be empty without a session"}
	}
	if r.Retries < 0 {
		return &ConfigurationError{Field: "Retries", Message: "must be >= 0"}
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return &ConfigurationError{Field: "Temperature", Message: "must be in [0, 2]"}
	}
	if r.MaxOutputTokens < 0 {
		return &ConfigurationError{Field: "MaxOutputTokens", Message: "must be >= 0"}
	}
	if r.Enhancement.Rounds < 0 {
		return &ConfigurationError{Field: "Enhancement.Rounds", Message: "must be >= 0"}
	}
	return nil
}

// sendOptions projects the request's generation options for the provider.
func (r *Request) sendOptions() SendOptions {
	return SendOptions{
		Model:           r.Model,
		Temperature:     r.Temperature,
		MaxOutputTokens: r.MaxOutputTokens,
	}
}
