package schema

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeOf(v any) reflect.Type {
	return reflect.TypeOf(v)
}

func TestFromType(t *testing.T) {
	type Report struct {
		Title    string   `json:"title" description:"Short title"`
		Severity string   `json:"severity" enum:"low,medium,high"`
		Score    float64  `json:"score,omitempty"`
		Owner    *string  `json:"owner"`
		Tags     []string `json:"tags,omitempty"`
		Internal string   `json:"-"`
	}

	s, err := FromType[Report]()
	require.NoError(t, err)

	raw := s.Raw()
	assert.Equal(t, "object", raw["type"])

	props := raw["properties"].(map[string]any)
	title := props["title"].(map[string]any)
	assert.Equal(t, "string", title["type"])
	assert.Equal(t, "Short title", title["description"])

	severity := props["severity"].(map[string]any)
	assert.Equal(t, []any{"low", "medium", "high"}, severity["enum"])

	// Pointers become nullable.
	owner := props["owner"].(map[string]any)
	assert.Equal(t, []string{"string", "null"}, owner["type"])

	// json:"-" fields are excluded.
	_, hasInternal := props["Internal"]
	assert.False(t, hasInternal)

	// Required: non-pointer fields without omitempty.
	assert.ElementsMatch(t, []string{"title", "severity"}, raw["required"])
}

func TestFromType_Validation(t *testing.T) {
	type Person struct {
		Name string `json:"name"`
		Age  int    `json:"age,omitempty"`
	}

	s, err := FromType[Person]()
	require.NoError(t, err)

	assert.NoError(t, s.Validate(map[string]any{"name": "Ana", "age": 30}))
	assert.Error(t, s.Validate(map[string]any{"age": 30}))
	assert.Error(t, s.Validate(map[string]any{"name": "Ana", "age": "thirty"}))
}

func TestFromType_EnumEnforced(t *testing.T) {
	type Ticket struct {
		Status string `json:"status" enum:"open,closed"`
	}

	s := MustFromType[Ticket]()

	assert.NoError(t, s.Validate(map[string]any{"status": "open"}))
	assert.Error(t, s.Validate(map[string]any{"status": "pending"}))
}

func TestRawFromType(t *testing.T) {
	type input struct {
		raw map[string]any
	}

	type expected struct {
		typ string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "string",
			input:    input{raw: rawFromType(typeOf(""))},
			expected: expected{typ: "string"},
		},
		{
			name:     "int",
			input:    input{raw: rawFromType(typeOf(0))},
			expected: expected{typ: "integer"},
		},
		{
			name:     "float",
			input:    input{raw: rawFromType(typeOf(0.0))},
			expected: expected{typ: "number"},
		},
		{
			name:     "bool",
			input:    input{raw: rawFromType(typeOf(false))},
			expected: expected{typ: "boolean"},
		},
		{
			name:     "slice",
			input:    input{raw: rawFromType(typeOf([]string{}))},
			expected: expected{typ: "array"},
		},
		{
			name:     "map",
			input:    input{raw: rawFromType(typeOf(map[string]int{}))},
			expected: expected{typ: "object"},
		},
		{
			name:     "time",
			input:    input{raw: rawFromType(typeOf(time.Time{}))},
			expected: expected{typ: "string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected.typ, tt.input.raw["type"])
		})
	}
}

func TestRawFromType_TimeFormat(t *testing.T) {
	raw := rawFromType(typeOf(time.Time{}))

	assert.Equal(t, "date-time", raw["format"])
}
