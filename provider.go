package persuader

import (
	"context"
	"time"
)

// Provider is the external capability that executes prompts against a
// language model and manages conversation sessions. Concrete adapters
// (subprocess-based, HTTP-based) are interchangeable strategy
// implementations injected into the Pipeline, never hard-wired.
//
// Implementations must attach an ErrorKind tag (via *ProviderError) at the
// point each failure is raised so retry classification stays a lookup.
type Provider interface {
	// Name returns a short identifier for logging and error context.
	Name() string

	// SendPrompt executes one prompt. sessionID may be empty for a
	// sessionless call. The context carries the per-call deadline.
	SendPrompt(ctx context.Context, sessionID, prompt string, opts SendOptions) (*Response, error)

	// CreateSession creates a provider-side conversation seeded with the
	// given context text. Every call must mint a fresh identifier.
	CreateSession(ctx context.Context, contextText string, opts SessionOptions) (string, error)

	// ValidateSession probes whether the session is still usable.
	ValidateSession(ctx context.Context, sessionID string) error

	// DestroySession releases the session. Destroying an unknown or already
	// destroyed session reports ErrSessionNotFound.
	DestroySession(ctx context.Context, sessionID string) error

	// Health reports provider availability and measured response time.
	Health(ctx context.Context) (*HealthStatus, error)
}

// SendOptions carries per-call generation options.
type SendOptions struct {
	// Model overrides the provider's default model when non-empty.
	Model string

	// Temperature overrides the provider default when non-nil.
	Temperature *float64

	// MaxOutputTokens caps the response size. 0 means provider default.
	MaxOutputTokens int
}

// SessionOptions carries options for session creation.
type SessionOptions struct {
	// Model pins the session to a model when non-empty.
	Model string
}

// Response is a normalized provider reply.
type Response struct {
	// Content is the raw text returned by the model.
	Content string

	// Usage is token accounting for this call, nil when the provider does
	// not report it.
	Usage *TokenUsage

	// StopReason is the provider's reason for ending generation.
	StopReason string

	// Metadata holds provider-specific extras not covered by the
	// normalized fields.
	Metadata map[string]any
}

// TokenUsage is normalized token accounting across providers.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add accumulates usage from another call. Nil other is a no-op.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// HealthStatus reports provider availability.
type HealthStatus struct {
	Healthy      bool
	ResponseTime time.Duration
	Error        string
}
