package persuader

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shaneholloman/persuader/schema"
)

// FieldErrorKind classifies a single field-level validation failure.
type FieldErrorKind string

const (
	// KindTypeMismatch indicates a value of the wrong type.
	KindTypeMismatch FieldErrorKind = "type_mismatch"

	// KindRange indicates a violated numeric or length bound.
	KindRange FieldErrorKind = "range"

	// KindEnumMismatch indicates a value outside the permitted literals.
	KindEnumMismatch FieldErrorKind = "enum_mismatch"

	// KindMissing indicates an absent required field.
	KindMissing FieldErrorKind = "missing"

	// KindCustom covers parse failures and uncategorized schema failures.
	KindCustom FieldErrorKind = "custom"
)

// FieldError is one structured validation failure, ready to be rendered
// into a corrective prompt.
type FieldError struct {
	// Path locates the offending field, e.g. "items[2].name". Empty for
	// document-level failures such as undecodable responses.
	Path string

	// Kind classifies the failure.
	Kind FieldErrorKind

	// Expected describes what the schema wanted.
	Expected string

	// Actual describes the received value.
	Actual string

	// Suggestions holds near-match candidates for enum mismatches,
	// ascending by distance. Possibly empty.
	Suggestions []string
}

func (e *FieldError) String() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("%s: expected %s, got %s", path, e.Expected, e.Actual)
}

// Validator is the validation adapter: it decodes raw provider text into a
// candidate value and runs it through the schema capability, normalizing
// failures into FieldError entries. Decoding always happens first;
// undecodable text produces a single KindCustom error without invoking the
// schema capability.
type Validator struct {
	suggestions *SuggestionEngine
}

// NewValidator creates a validation adapter. A nil engine disables fuzzy
// suggestions.
func NewValidator(suggestions *SuggestionEngine) *Validator {
	return &Validator{suggestions: suggestions}
}

// Validate decodes raw text and checks it against the schema. On success it
// returns the decoded value and no errors; on failure, nil and the ordered
// error list.
func (v *Validator) Validate(s *schema.Schema, raw string) (any, []*FieldError) {
	value, err := Decode(raw)
	if err != nil {
		return nil, []*FieldError{parseFieldError(err)}
	}

	issues := s.ValidateDetailed(value)
	if len(issues) == 0 {
		return value, nil
	}

	errs := make([]*FieldError, len(issues))
	for i, issue := range issues {
		errs[i] = v.normalize(issue)
	}
	return nil, errs
}

func (v *Validator) normalize(issue schema.FieldIssue) *FieldError {
	fe := &FieldError{
		Path:     issue.Path,
		Expected: issue.Expected,
		Actual:   issue.Actual,
	}

	switch issue.Kind {
	case schema.IssueType:
		fe.Kind = KindTypeMismatch
	case schema.IssueRange:
		fe.Kind = KindRange
	case schema.IssueEnum:
		fe.Kind = KindEnumMismatch
		if v.suggestions != nil {
			fe.Suggestions = v.suggestions.Suggest(issue.Actual, issue.Allowed)
		}
	case schema.IssueMissing:
		fe.Kind = KindMissing
	default:
		fe.Kind = KindCustom
	}
	return fe
}

// parseFieldError converts a decode failure into the single KindCustom
// entry that consumes an attempt instead of crashing the loop.
func parseFieldError(err error) *FieldError {
	return &FieldError{
		Kind:     KindCustom,
		Expected: "valid JSON",
		Actual:   err.Error(),
	}
}

// Decode extracts a candidate value from raw provider text. Markdown code
// fences are stripped and surrounding prose is tolerated as long as a
// single JSON document can be located.
func Decode(raw string) (any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &ParseError{Raw: raw, Cause: ErrEmptyResponse}
	}

	text = stripFences(text)

	var value any
	if err := json.Unmarshal([]byte(text), &value); err == nil {
		return value, nil
	}

	// Models sometimes wrap the document in prose. Try the outermost
	// object or array literal.
	if extracted, ok := extractJSONBlock(text); ok {
		var value any
		if err := json.Unmarshal([]byte(extracted), &value); err == nil {
			return value, nil
		}
	}

	err := json.Unmarshal([]byte(text), &value)
	return nil, &ParseError{Raw: raw, Cause: err}
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	rest := strings.TrimPrefix(text, "```")
	if idx := strings.Index(rest, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "yaml", or empty).
		rest = rest[idx+1:]
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}

// extractJSONBlock returns the outermost {...} or [...] span in text.
func extractJSONBlock(text string) (string, bool) {
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(text, pair[0])
		end := strings.LastIndexByte(text, pair[1])
		if start >= 0 && end > start {
			return text[start : end+1], true
		}
	}
	return "", false
}
