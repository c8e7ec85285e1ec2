package persuader

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockProvider simulates provider behavior for testing. Responses and
// errors are consumed from queues in FIFO order; every prompt sent is
// captured for assertions. Safe for concurrent use.
type MockProvider struct {
	mu        sync.Mutex
	name      string
	responses []*Response
	errs      []error
	prompts   []string
	sessions  map[string]string
	healthy   bool
	callback  func(sessionID, prompt string, opts SendOptions) (*Response, error)
}

// NewMockProvider creates an empty mock. Queue responses with
// QueueResponse or QueueError before use; an empty queue yields an
// ErrEmptyResponse-tagged failure.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name:     "mock",
		sessions: make(map[string]string),
		healthy:  true,
	}
}

// NewMockProviderWithResponses creates a mock preloaded with text
// responses, consumed in order. The last response repeats once the queue
// drains.
func NewMockProviderWithResponses(contents ...string) *MockProvider {
	m := NewMockProvider()
	for _, c := range contents {
		m.QueueResponse(c)
	}
	return m
}

// NewMockProviderWithCallback creates a mock that delegates every send to
// the callback.
func NewMockProviderWithCallback(callback func(sessionID, prompt string, opts SendOptions) (*Response, error)) *MockProvider {
	m := NewMockProvider()
	m.callback = callback
	return m
}

// QueueResponse appends a text response with nominal token usage.
func (m *MockProvider) QueueResponse(content string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, &Response{
		Content: content,
		Usage:   &TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
	})
	return m
}

// QueueError appends an error to be returned before any further queued
// responses are consumed.
func (m *MockProvider) QueueError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
	return m
}

// SetHealthy sets the health probe outcome.
func (m *MockProvider) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
}

// Prompts returns a copy of every prompt sent so far, in order.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// CallCount returns the number of SendPrompt calls observed.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) SendPrompt(ctx context.Context, sessionID, prompt string, opts SendOptions) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		m.mu.Unlock()
		return nil, err
	}

	if m.callback != nil {
		cb := m.callback
		m.mu.Unlock()
		return cb(sessionID, prompt, opts)
	}

	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, &ProviderError{
			Provider: m.name,
			Kind:     ErrKindUnknown,
			Message:  "no queued response",
			Cause:    ErrEmptyResponse,
		}
	}

	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	return &Response{
		Content:    resp.Content,
		Usage:      &TokenUsage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens, TotalTokens: resp.Usage.TotalTokens},
		StopReason: resp.StopReason,
	}, nil
}

func (m *MockProvider) CreateSession(ctx context.Context, contextText string, _ SessionOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.New().String()
	m.mu.Lock()
	m.sessions[id] = contextText
	m.mu.Unlock()
	return id, nil
}

func (m *MockProvider) ValidateSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return &SessionError{SessionID: sessionID, Op: "validate", Cause: ErrSessionNotFound}
	}
	return nil
}

func (m *MockProvider) DestroySession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return &SessionError{SessionID: sessionID, Op: "destroy", Cause: ErrSessionNotFound}
	}
	delete(m.sessions, sessionID)
	return nil
}

func (m *MockProvider) Health(ctx context.Context) (*HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	status := &HealthStatus{Healthy: m.healthy, ResponseTime: time.Millisecond}
	if !m.healthy {
		status.Error = "mock provider marked unhealthy"
	}
	return status, nil
}
