package persuader

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaneholloman/persuader/schema"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Sleep = func(context.Context, time.Duration) error { return nil }
	return cfg
}

func nameSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return schema.MustCompile(schema.Object(map[string]*schema.Property{
		"name": schema.String("Full name"),
	}, "name"))
}

func TestPipeline_FirstAttemptSuccess(t *testing.T) {
	mock := NewMockProviderWithResponses(`{"name": "Ana"}`)
	pipe := New(mock, testConfig())

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema:  nameSchema(t),
		Input:   "Ana, 30",
		Retries: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, map[string]any{"name": "Ana"}, res.Value)
	assert.Equal(t, `{"name": "Ana"}`, res.RawValue)
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, FailureNone, res.Metadata.FailureReason)
	assert.Nil(t, res.Err)
	assert.NoError(t, res.AsError())
	assert.Equal(t, 1, mock.CallCount())
}

func TestPipeline_CorrectiveRetrySucceeds(t *testing.T) {
	mock := NewMockProviderWithResponses(
		`{"wrong": true}`,
		`{"name": "Ana"}`,
	)
	pipe := New(mock, testConfig())

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema:  nameSchema(t),
		Input:   "Ana, 30",
		Retries: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	require.Len(t, res.Attempts, 2)

	// The first attempt carries its validation errors; the second prompt is
	// corrective and names the missing field.
	assert.NotEmpty(t, res.Attempts[0].Errors)
	assert.Empty(t, res.Attempts[1].Errors)

	prompts := mock.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "failed validation")
	assert.Contains(t, prompts[1], "name")
}

func TestPipeline_ExhaustedRetries(t *testing.T) {
	mock := NewMockProviderWithResponses(`{"wrong": true}`)
	pipe := New(mock, testConfig())

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema:  nameSchema(t),
		Input:   "Ana, 30",
		Retries: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, res.Outcome)
	assert.Equal(t, FailureExhaustedRetries, res.Metadata.FailureReason)
	assert.Len(t, res.Attempts, 3)
	assert.NotEmpty(t, res.Errors)
	assert.Nil(t, res.Value)

	err = res.AsError()
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	var verr *SchemaValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPipeline_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	mock := NewMockProviderWithResponses(`{"wrong": true}`)
	pipe := New(mock, testConfig())

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema: nameSchema(t),
		Input:  "Ana, 30",
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, res.Outcome)
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, 1, mock.CallCount())
}

func TestPipeline_FatalErrorAbortsImmediately(t *testing.T) {
	mock := NewMockProvider()
	mock.QueueError(&ProviderError{Provider: "mock", Kind: ErrKindAuth, Message: "bad key"})
	pipe := New(mock, testConfig())

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema:  nameSchema(t),
		Input:   "Ana, 30",
		Retries: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, res.Outcome)
	assert.Equal(t, FailureFatal, res.Metadata.FailureReason)
	assert.Len(t, res.Attempts, 1)
	require.Error(t, res.Err)
	assert.Equal(t, ErrKindAuth, Classify(res.Err))
}

func TestPipeline_TransientErrorResendsSamePrompt(t *testing.T) {
	mock := NewMockProvider()
	mock.QueueError(&ProviderError{Provider: "mock", Kind: ErrKindRateLimit, Message: "slow down"})
	mock.QueueResponse(`{"name": "Ana"}`)
	pipe := New(mock, testConfig())

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema:  nameSchema(t),
		Input:   "Ana, 30",
		Retries: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Len(t, res.Attempts, 2)

	// A transient fault is not a validation failure, so the retry replays
	// the identical prompt instead of building a corrective one.
	prompts := mock.Prompts()
	require.Len(t, prompts, 2)
	assert.Equal(t, prompts[0], prompts[1])
}

func TestPipeline_ConfigurationErrorsFailFast(t *testing.T) {
	type input struct {
		req *Request
	}

	type expected struct {
		field string
	}

	temp := 5.0
	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "nil schema",
			input:    input{req: &Request{Input: "x"}},
			expected: expected{field: "Schema"},
		},
		{
			name:     "empty input without session",
			input:    input{req: &Request{Schema: &schema.Schema{}}},
			expected: expected{field: "Input"},
		},
		{
			name:     "negative retries",
			input:    input{req: &Request{Schema: &schema.Schema{}, Input: "x", Retries: -1}},
			expected: expected{field: "Retries"},
		},
		{
			name:     "temperature out of range",
			input:    input{req: &Request{Schema: &schema.Schema{}, Input: "x", Temperature: &temp}},
			expected: expected{field: "Temperature"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider()
			pipe := New(mock, testConfig())

			res, err := pipe.Persuade(context.Background(), tt.input.req)

			require.Error(t, err)
			assert.Nil(t, res)
			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.expected.field, cerr.Field)
			assert.Equal(t, 0, mock.CallCount())
		})
	}
}

func TestPipeline_EnhancementAcceptsBetterCandidate(t *testing.T) {
	mock := NewMockProviderWithResponses(
		`{"name": "Jo"}`,
		`{"name": "Jonathan Winchester Smith"}`,
	)
	pipe := New(mock, testConfig())

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema:      nameSchema(t),
		Input:       "Jo, engineer",
		Enhancement: EnhancementConfig{Rounds: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, map[string]any{"name": "Jonathan Winchester Smith"}, res.Value)
	assert.Equal(t, 1, res.Metadata.EnhancementRounds)

	// Enhancement rounds are not attempts.
	assert.Len(t, res.Attempts, 1)
}

func TestPipeline_EnhancementKeepsBaselineOnInvalidCandidate(t *testing.T) {
	mock := NewMockProviderWithResponses(
		`{"name": "Jo"}`,
		`{"wrong": true}`,
	)
	pipe := New(mock, testConfig())

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema:      nameSchema(t),
		Input:       "Jo, engineer",
		Enhancement: EnhancementConfig{Rounds: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, `{"name": "Jo"}`, res.RawValue)
	assert.Equal(t, 1, res.Metadata.EnhancementRounds)
}

func TestPipeline_EnhancementRejectsLowerScore(t *testing.T) {
	mock := NewMockProviderWithResponses(
		`{"name": "Jonathan Winchester Smith"}`,
		`{"name": "Jo"}`,
	)
	pipe := New(mock, testConfig())

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema:      nameSchema(t),
		Input:       "Jonathan, engineer",
		Enhancement: EnhancementConfig{Rounds: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"name": "Jonathan Winchester Smith"}`, res.RawValue)
}

func TestPipeline_CostEstimation(t *testing.T) {
	cfg := testConfig()
	cfg.CostRates = map[string]CostRate{
		"test-model": {InputPer1K: 1.0, OutputPer1K: 2.0},
	}

	mock := NewMockProviderWithResponses(`{"name": "Ana"}`)
	pipe := New(mock, cfg)

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema: nameSchema(t),
		Input:  "Ana, 30",
		Model:  "test-model",
	})

	require.NoError(t, err)
	// Mock responses report 10 input and 20 output tokens.
	assert.InDelta(t, 0.05, res.Metadata.EstimatedCost, 1e-9)
	assert.Equal(t, 30, res.Metadata.TotalUsage.TotalTokens)
}

func TestPipeline_CostZeroForUnknownModel(t *testing.T) {
	mock := NewMockProviderWithResponses(`{"name": "Ana"}`)
	pipe := New(mock, testConfig())

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema: nameSchema(t),
		Input:  "Ana, 30",
		Model:  "unpriced-model",
	})

	require.NoError(t, err)
	assert.Equal(t, float64(0), res.Metadata.EstimatedCost)
}

// recordingHook counts hook invocations across all hook interfaces.
type recordingHook struct {
	mu                 sync.Mutex
	beforeAttempts     int
	afterAttempts      int
	validationFailures int
	enhancementRounds  int
	errors             int
}

func (h *recordingHook) OnBeforeAttempt(_ context.Context, _ BeforeAttemptEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeAttempts++
}

func (h *recordingHook) OnAfterAttempt(_ context.Context, _ AfterAttemptEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterAttempts++
}

func (h *recordingHook) OnValidationFailure(_ context.Context, _ ValidationFailureEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.validationFailures++
}

func (h *recordingHook) OnEnhancementRound(_ context.Context, _ EnhancementRoundEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enhancementRounds++
}

func (h *recordingHook) OnError(_ context.Context, _ ErrorEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors++
}

func TestPipeline_HooksFire(t *testing.T) {
	mock := NewMockProviderWithResponses(
		`{"wrong": true}`,
		`{"name": "Ana"}`,
	)
	hook := &recordingHook{}
	pipe := New(mock, testConfig()).RegisterHook(hook)

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema:  nameSchema(t),
		Input:   "Ana, 30",
		Retries: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, 2, hook.beforeAttempts)
	assert.Equal(t, 2, hook.afterAttempts)
	assert.Equal(t, 1, hook.validationFailures)
	assert.Equal(t, 0, hook.errors)
}

func TestPipeline_SessionRunRecordsMetrics(t *testing.T) {
	mock := NewMockProviderWithResponses(
		"Context loaded, ok.",
		`{"name": "Ana"}`,
	)
	pipe := New(mock, testConfig())

	sess, ack, err := pipe.Coordinator().InitSession(context.Background(), "HR records context", SessionOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, ack)

	res, err := pipe.Persuade(context.Background(), &Request{
		Schema:    nameSchema(t),
		Input:     "Ana, 30",
		SessionID: sess.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, sess.ID, res.SessionID)

	metrics, err := pipe.Coordinator().SessionMetrics(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.Operations)
	assert.Equal(t, 1.0, metrics.SuccessRate)
}
