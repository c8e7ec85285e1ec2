package persuader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaneholloman/persuader/schema"
)

func TestDecode(t *testing.T) {
	type input struct {
		raw string
	}

	type expected struct {
		value  any
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "plain json object",
			input: input{raw: `{"name": "Ana"}`},
			expected: expected{
				value: map[string]any{"name": "Ana"},
			},
		},
		{
			name:  "json array",
			input: input{raw: `[1, 2, 3]`},
			expected: expected{
				value: []any{float64(1), float64(2), float64(3)},
			},
		},
		{
			name:  "fenced with language tag",
			input: input{raw: "```json\n{\"name\": \"Ana\"}\n```"},
			expected: expected{
				value: map[string]any{"name": "Ana"},
			},
		},
		{
			name:  "fenced without language tag",
			input: input{raw: "```\n{\"name\": \"Ana\"}\n```"},
			expected: expected{
				value: map[string]any{"name": "Ana"},
			},
		},
		{
			name:  "prose around the document",
			input: input{raw: "Here is the result:\n{\"name\": \"Ana\"}\nLet me know if you need more."},
			expected: expected{
				value: map[string]any{"name": "Ana"},
			},
		},
		{
			name:     "empty response",
			input:    input{raw: "   \n  "},
			expected: expected{hasErr: true},
		},
		{
			name:     "not json at all",
			input:    input{raw: "I cannot produce that."},
			expected: expected{hasErr: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := Decode(tt.input.raw)

			if tt.expected.hasErr {
				require.Error(t, err)
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
				assert.Nil(t, value)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected.value, value)
			}
		})
	}
}

func TestDecode_EmptyResponseSentinel(t *testing.T) {
	_, err := Decode("")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestValidator_Validate(t *testing.T) {
	s := schema.MustCompile(schema.Object(map[string]*schema.Property{
		"name":     schema.String("Full name"),
		"age":      schema.Integer("Age in years").Min(0).Max(150),
		"position": schema.String("Position").Enum("guard", "mount", "side-control"),
	}, "name", "position"))

	type input struct {
		raw string
	}

	type expected struct {
		valid bool
		kinds []FieldErrorKind
		paths []string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "valid document",
			input: input{raw: `{"name": "Ana", "age": 30, "position": "guard"}`},
			expected: expected{
				valid: true,
			},
		},
		{
			name:  "type mismatch",
			input: input{raw: `{"name": 42, "position": "guard"}`},
			expected: expected{
				kinds: []FieldErrorKind{KindTypeMismatch},
				paths: []string{"name"},
			},
		},
		{
			name:  "missing required field",
			input: input{raw: `{"name": "Ana"}`},
			expected: expected{
				kinds: []FieldErrorKind{KindMissing},
				paths: []string{"position"},
			},
		},
		{
			name:  "range violation",
			input: input{raw: `{"name": "Ana", "age": 200, "position": "guard"}`},
			expected: expected{
				kinds: []FieldErrorKind{KindRange},
				paths: []string{"age"},
			},
		},
		{
			name:  "enum mismatch",
			input: input{raw: `{"name": "Ana", "position": "gaurd"}`},
			expected: expected{
				kinds: []FieldErrorKind{KindEnumMismatch},
				paths: []string{"position"},
			},
		},
		{
			name:  "undecodable yields single custom error",
			input: input{raw: "not json"},
			expected: expected{
				kinds: []FieldErrorKind{KindCustom},
				paths: []string{""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(DefaultSuggestionEngine())
			value, errs := v.Validate(s, tt.input.raw)

			if tt.expected.valid {
				assert.Empty(t, errs)
				assert.NotNil(t, value)
				return
			}

			assert.Nil(t, value)
			require.Len(t, errs, len(tt.expected.kinds))
			for i, fe := range errs {
				assert.Equal(t, tt.expected.kinds[i], fe.Kind)
				assert.Equal(t, tt.expected.paths[i], fe.Path)
			}
		})
	}
}

func TestValidator_EnumSuggestions(t *testing.T) {
	s := schema.MustCompile(schema.Object(map[string]*schema.Property{
		"status": schema.String("Status").Enum("pending", "active", "closed"),
	}, "status"))

	v := NewValidator(DefaultSuggestionEngine())
	_, errs := v.Validate(s, `{"status": "pendign"}`)

	require.Len(t, errs, 1)
	assert.Equal(t, KindEnumMismatch, errs[0].Kind)
	assert.Equal(t, []string{"pending"}, errs[0].Suggestions)
}

func TestValidator_NilSuggestionEngine(t *testing.T) {
	s := schema.MustCompile(schema.Object(map[string]*schema.Property{
		"status": schema.String("Status").Enum("pending", "active"),
	}, "status"))

	v := NewValidator(nil)
	_, errs := v.Validate(s, `{"status": "pendign"}`)

	require.Len(t, errs, 1)
	assert.Empty(t, errs[0].Suggestions)
}
