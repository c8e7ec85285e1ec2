// Package langchain adapts any langchaingo llms.Model to the persuader
// Provider interface.
//
// Sessions are held client-side: each session carries its initial context
// as a system message plus the running conversation history, and every
// SendPrompt on a session replays that history to the model. Providers
// without native conversation state therefore still get reusable
// sessions.
//
// Example usage:
//
//	llm, _ := openai.New(openai.WithToken(apiKey))
//	provider := langchain.New(llm, langchain.WithName("openai"))
//	pipe := persuader.New(provider, persuader.DefaultConfig())
package langchain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/shaneholloman/persuader"
)

// Provider adapts an llms.Model. Safe for concurrent use across distinct
// sessions; a single session's history is serialized by the internal lock
// but callers must still keep one run per session at a time, since
// history order is the conversation.
type Provider struct {
	model        llms.Model
	name         string
	defaultModel string

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	context string
	model   string
	history []llms.MessageContent
}

// Option configures the provider.
type Option func(*Provider)

// WithName sets the provider name reported in errors and logs.
func WithName(name string) Option {
	return func(p *Provider) { p.name = name }
}

// WithDefaultModel sets the model used when neither the request nor the
// session names one.
func WithDefaultModel(model string) Option {
	return func(p *Provider) { p.defaultModel = model }
}

// New creates a Provider over the given llms.Model.
func New(model llms.Model, opts ...Option) *Provider {
	p := &Provider{
		model:        model,
		name:         "langchain",
		defaultModel: persuader.DefaultModel,
		sessions:     make(map[string]*session),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements persuader.Provider.
func (p *Provider) Name() string { return p.name }

// SendPrompt implements persuader.Provider. With a session id the prompt
// is appended to the session's conversation and the full history is sent;
// otherwise the prompt goes out alone.
func (p *Provider) SendPrompt(ctx context.Context, sessionID, prompt string, opts persuader.SendOptions) (*persuader.Response, error) {
	messages, sess, err := p.buildMessages(sessionID, prompt)
	if err != nil {
		return nil, err
	}

	callOpts := p.callOptions(sess, opts)

	resp, err := p.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, p.classify(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, &persuader.ProviderError{
			Provider: p.name,
			Kind:     persuader.ErrKindUnknown,
			Message:  "model returned no choices",
			Cause:    persuader.ErrEmptyResponse,
		}
	}

	choice := resp.Choices[0]
	if sessionID != "" {
		p.appendExchange(sessionID, prompt, choice.Content)
	}

	return &persuader.Response{
		Content:    choice.Content,
		StopReason: choice.StopReason,
		Usage:      usageFromInfo(choice.GenerationInfo),
		Metadata:   choice.GenerationInfo,
	}, nil
}

// CreateSession implements persuader.Provider. Each call produces a
// distinct session with a freshly generated id.
func (p *Provider) CreateSession(ctx context.Context, contextText string, opts persuader.SessionOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.New().String()
	p.mu.Lock()
	p.sessions[id] = &session{context: contextText, model: opts.Model}
	p.mu.Unlock()
	return id, nil
}

// ValidateSession implements persuader.Provider.
func (p *Provider) ValidateSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	_, ok := p.sessions[sessionID]
	p.mu.RUnlock()
	if !ok {
		return &persuader.SessionError{SessionID: sessionID, Op: "validate", Cause: persuader.ErrSessionNotFound}
	}
	return nil
}

// DestroySession implements persuader.Provider. Destroying an unknown
// session is an error; destroying twice reports the second call.
func (p *Provider) DestroySession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[sessionID]; !ok {
		return &persuader.SessionError{SessionID: sessionID, Op: "destroy", Cause: persuader.ErrSessionNotFound}
	}
	delete(p.sessions, sessionID)
	return nil
}

// Health implements persuader.Provider with a minimal generation probe.
func (p *Provider) Health(ctx context.Context) (*persuader.HealthStatus, error) {
	start := time.Now()
	_, err := p.model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, `Respond with exactly "ok".`)},
		llms.WithModel(p.defaultModel),
		llms.WithMaxTokens(8),
	)
	status := &persuader.HealthStatus{
		Healthy:      err == nil,
		ResponseTime: time.Since(start),
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status, nil
}

func (p *Provider) buildMessages(sessionID, prompt string) ([]llms.MessageContent, *session, error) {
	human := llms.TextParts(llms.ChatMessageTypeHuman, prompt)

	if sessionID == "" {
		return []llms.MessageContent{human}, nil, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	sess, ok := p.sessions[sessionID]
	if !ok {
		return nil, nil, &persuader.SessionError{SessionID: sessionID, Op: "send", Cause: persuader.ErrSessionNotFound}
	}

	messages := make([]llms.MessageContent, 0, len(sess.history)+2)
	if sess.context != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, sess.context))
	}
	messages = append(messages, sess.history...)
	messages = append(messages, human)
	return messages, sess, nil
}

func (p *Provider) appendExchange(sessionID, prompt, reply string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[sessionID]
	if !ok {
		return
	}
	sess.history = append(sess.history,
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		llms.TextParts(llms.ChatMessageTypeAI, reply),
	)
}

func (p *Provider) callOptions(sess *session, opts persuader.SendOptions) []llms.CallOption {
	model := opts.Model
	if model == "" && sess != nil {
		model = sess.model
	}
	if model == "" {
		model = p.defaultModel
	}

	callOpts := []llms.CallOption{llms.WithModel(model)}
	if opts.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*opts.Temperature))
	}
	if opts.MaxOutputTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxOutputTokens))
	}
	return callOpts
}

// classify tags model errors so the retry loop can tell transient faults
// from fatal ones. langchaingo surfaces provider failures as plain errors,
// so classification keys off the message and any wrapped context error.
func (p *Provider) classify(err error) error {
	kind := persuader.ErrKindUnknown

	msg := strings.ToLower(err.Error())
	switch {
	case isContextErr(err) || strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		kind = persuader.ErrKindTimeout
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "quota"):
		kind = persuader.ErrKindRateLimit
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key") || strings.Contains(msg, "authentication"):
		kind = persuader.ErrKindAuth
	case strings.Contains(msg, "model") && (strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist") || strings.Contains(msg, "invalid")):
		kind = persuader.ErrKindInvalidModel
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") || strings.Contains(msg, "dns") || strings.Contains(msg, "eof") || strings.Contains(msg, "502") || strings.Contains(msg, "503"):
		kind = persuader.ErrKindNetwork
	}

	return &persuader.ProviderError{
		Provider: p.name,
		Kind:     kind,
		Message:  err.Error(),
		Cause:    err,
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// usageFromInfo normalizes token counts from GenerationInfo. Different
// langchaingo backends use different key names.
func usageFromInfo(info map[string]any) *persuader.TokenUsage {
	if info == nil {
		return nil
	}

	usage := &persuader.TokenUsage{
		InputTokens:  firstInt(info, "PromptTokens", "InputTokens", "input_tokens"),
		OutputTokens: firstInt(info, "CompletionTokens", "OutputTokens", "output_tokens"),
	}
	usage.TotalTokens = firstInt(info, "TotalTokens", "total_tokens")
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return usage
}

func firstInt(m map[string]any, keys ...string) int {
	for _, key := range keys {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			return n
		case int32:
			return int(n)
		case int64:
			return int(n)
		case float64:
			return int(n)
		case float32:
			return int(n)
		}
	}
	return 0
}

// Compile-time check that Provider implements persuader.Provider.
var _ persuader.Provider = (*Provider)(nil)
