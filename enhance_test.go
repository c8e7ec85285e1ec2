package persuader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityEvaluator(t *testing.T) {
	e := &SimilarityEvaluator{Reference: "{\n  \"name\": \"Ana\"\n}"}

	identical := e.Evaluate(nil, &Candidate{Raw: "{\n  \"name\": \"Ana\"\n}"})
	different := e.Evaluate(nil, &Candidate{Raw: "completely unrelated text"})

	assert.Equal(t, 1.0, identical)
	assert.Less(t, different, identical)
	assert.Equal(t, float64(0), e.Evaluate(nil, nil))
}

func TestCompletenessEvaluator(t *testing.T) {
	type input struct {
		value any
	}

	type expected struct {
		score float64
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "nil value",
			input:    input{value: nil},
			expected: expected{score: 0},
		},
		{
			name:     "empty string",
			input:    input{value: map[string]any{"name": ""}},
			expected: expected{score: 0},
		},
		{
			name:     "short string",
			input:    input{value: map[string]any{"name": "Jo"}},
			expected: expected{score: 1.02},
		},
		{
			name: "richer document scores higher",
			input: input{value: map[string]any{
				"name":   "Jonathan",
				"age":    float64(30),
				"active": true,
				"tags":   []any{"a", "b"},
			}},
			expected: expected{score: 1.08 + 1 + 1 + 1.01 + 1.01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := CompletenessEvaluator{}
			got := e.Evaluate(nil, &Candidate{Value: tt.input.value})
			assert.InDelta(t, tt.expected.score, got, 1e-9)
		})
	}
}

func TestCompletenessEvaluator_LongStringsCapExtra(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}

	e := CompletenessEvaluator{}
	got := e.Evaluate(nil, &Candidate{Value: string(long)})

	// The per-string bonus saturates at 1.
	assert.InDelta(t, 2.0, got, 1e-9)
}

func TestDefaultEvaluator(t *testing.T) {
	type custom struct{ Evaluator }

	withCustom := &Request{Enhancement: EnhancementConfig{Evaluator: custom{}}}
	withExample := &Request{ExampleOutput: `{"name": "x"}`}
	plain := &Request{}

	assert.IsType(t, custom{}, defaultEvaluator(withCustom))
	assert.IsType(t, &SimilarityEvaluator{}, defaultEvaluator(withExample))
	assert.IsType(t, CompletenessEvaluator{}, defaultEvaluator(plain))
}
