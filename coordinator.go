package persuader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Coordinator creates, validates, and destroys provider conversation
// sessions, and keeps per-session run statistics for SessionMetrics.
//
// The coordinator's own bookkeeping is safe for concurrent use; the
// underlying provider sessions are not. Callers must not issue two
// concurrently in-flight requests against the same session id.
type Coordinator struct {
	provider Provider
	prompts  *PromptBuilder
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

type sessionState struct {
	session Session
	stats   sessionStats
}

type sessionStats struct {
	operations        int
	successes         int
	attemptsToSuccess int
	withRetries       int
	totalDuration     time.Duration
	usage             TokenUsage
}

// NewCoordinator creates a session coordinator over the given provider.
// logger may be nil for silent operation.
func NewCoordinator(provider Provider, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		provider: provider,
		prompts:  NewPromptBuilder(),
		logger:   logger,
		sessions: make(map[string]*sessionState),
	}
}

// InitSession explicitly creates a session seeded with the given context
// text and returns it along with the provider's acknowledgment response.
// Every call mints a fresh identifier: repeated calls with identical
// context never resume a prior session, so stale rate-limit or auth state
// cannot leak across logically distinct sessions.
func (c *Coordinator) InitSession(ctx context.Context, contextText string, opts SessionOptions) (*Session, string, error) {
	id, err := c.provider.CreateSession(ctx, contextText, opts)
	if err != nil {
		return nil, "", &SessionError{Op: "create", Cause: err}
	}

	resp, err := c.provider.SendPrompt(ctx, id, "Acknowledge the loaded context in one short sentence.", SendOptions{Model: opts.Model})
	if err != nil {
		// Best effort cleanup; the create succeeded but the session is
		// unusable.
		_ = c.provider.DestroySession(ctx, id)
		return nil, "", &SessionError{SessionID: id, Op: "create", Cause: err}
	}

	sess := Session{
		ID:        id,
		CreatedAt: time.Now(),
		Context:   contextText,
		Model:     opts.Model,
		Status:    StatusActive,
	}

	c.mu.Lock()
	c.sessions[id] = &sessionState{session: sess}
	c.mu.Unlock()

	c.logger.Info("session created", "session_id", id, "model", opts.Model)
	return &sess, resp.Content, nil
}

// Preload sends input to the session without running validation, loading
// context for later pipeline runs.
func (c *Coordinator) Preload(ctx context.Context, sessionID, input string, opts SendOptions) error {
	if _, err := c.lookup(sessionID); err != nil {
		return err
	}

	prompt := "Context for later requests. Acknowledge briefly, do not act on it yet.\n\n" + input
	if _, err := c.provider.SendPrompt(ctx, sessionID, prompt, opts); err != nil {
		return &SessionError{SessionID: sessionID, Op: "preload", Cause: err}
	}

	c.logger.Debug("session preloaded", "session_id", sessionID, "input_length", len(input))
	return nil
}

// ValidateSession probes session health with a minimal prompt. A
// case-insensitive "ok" substring in the response is the validity signal.
// Invalid sessions are marked expired.
func (c *Coordinator) ValidateSession(ctx context.Context, sessionID string) error {
	state, err := c.lookup(sessionID)
	if err != nil {
		return err
	}

	c.setStatus(sessionID, StatusValidating)

	if err := c.provider.ValidateSession(ctx, sessionID); err != nil {
		c.setStatus(sessionID, StatusExpired)
		return &SessionError{SessionID: sessionID, Op: "validate", Cause: err}
	}

	resp, err := c.provider.SendPrompt(ctx, sessionID, c.prompts.Probe(), SendOptions{Model: state.session.Model})
	if err != nil {
		c.setStatus(sessionID, StatusExpired)
		return &SessionError{SessionID: sessionID, Op: "validate", Cause: err}
	}
	if !strings.Contains(strings.ToLower(resp.Content), "ok") {
		c.setStatus(sessionID, StatusExpired)
		return &SessionError{
			SessionID: sessionID,
			Op:        "validate",
			Cause:     fmt.Errorf("probe response %q lacks validity signal", resp.Content),
		}
	}

	c.setStatus(sessionID, StatusActive)
	return nil
}

// DestroySession releases the session on the provider and marks the local
// record destroyed.
func (c *Coordinator) DestroySession(ctx context.Context, sessionID string) error {
	if err := c.provider.DestroySession(ctx, sessionID); err != nil {
		return &SessionError{SessionID: sessionID, Op: "destroy", Cause: err}
	}
	c.setStatus(sessionID, StatusDestroyed)
	c.logger.Info("session destroyed", "session_id", sessionID)
	return nil
}

// GetSession returns a snapshot of the session's state.
func (c *Coordinator) GetSession(sessionID string) (*Session, error) {
	state, err := c.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess := state.session
	return &sess, nil
}

// SessionMetrics aggregates the recorded runs for a session.
func (c *Coordinator) SessionMetrics(sessionID string) (*SessionMetrics, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state.stats.metrics(), nil
}

// recordRun folds a completed pipeline run into the session's statistics.
// Called by the pipeline after assembling each Result.
func (c *Coordinator) recordRun(sessionID string, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.sessions[sessionID]
	if !ok {
		// The session may have been created out of band (caller supplied a
		// provider-native id). Track it so metrics still accumulate.
		state = &sessionState{session: Session{
			ID:        sessionID,
			CreatedAt: time.Now(),
			Status:    StatusActive,
		}}
		c.sessions[sessionID] = state
	}

	st := &state.stats
	st.operations++
	if res.Outcome == OutcomeSuccess {
		st.successes++
		st.attemptsToSuccess += len(res.Attempts)
	}
	if len(res.Attempts) > 1 {
		st.withRetries++
	}
	st.totalDuration += res.Metadata.Duration
	st.usage.Add(&res.Metadata.TotalUsage)
}

func (c *Coordinator) lookup(sessionID string) (*sessionState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if state.session.Status == StatusDestroyed {
		return nil, &SessionError{SessionID: sessionID, Op: "lookup", Cause: fmt.Errorf("session is destroyed")}
	}
	return state, nil
}

func (c *Coordinator) setStatus(sessionID string, status SessionStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if state, ok := c.sessions[sessionID]; ok {
		state.session.Status = status
	}
}
