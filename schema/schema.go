// Package schema provides the schema-checking capability consumed by the
// persuader pipeline: JSON Schema compilation, validation with structured
// field-level issues, a builder DSL, file loading, and reflective schema
// generation from Go types.
//
// # Quick Start
//
//	s := schema.MustCompile(schema.Object(map[string]*schema.Property{
//	    "name":     schema.String("Full name"),
//	    "age":      schema.Integer("Age in years").Min(0).Max(150),
//	    "position": schema.String("Position name").Enum("guard", "mount", "side-control"),
//	}, "name", "position"))
//
//	issues := s.ValidateDetailed(candidate)
//	for _, issue := range issues {
//	    fmt.Printf("%s: expected %s, got %s\n", issue.Path, issue.Expected, issue.Actual)
//	}
//
// ValidateDetailed reports every leaf failure with its field path, issue
// kind, and human-readable expected/actual descriptions. Enum issues also
// carry the permitted literals in declaration order so callers can compute
// near-match suggestions.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// IssueKind classifies a single validation failure.
type IssueKind string

const (
	// IssueType indicates a value of the wrong JSON type.
	IssueType IssueKind = "type_mismatch"

	// IssueRange indicates a numeric or length bound violation.
	IssueRange IssueKind = "range"

	// IssueEnum indicates a value outside the permitted literals.
	IssueEnum IssueKind = "enum_mismatch"

	// IssueMissing indicates a required property that was absent.
	IssueMissing IssueKind = "missing"

	// IssueCustom covers every other failure (pattern, format, const, ...).
	IssueCustom IssueKind = "custom"
)

// FieldIssue is one structured validation failure.
type FieldIssue struct {
	// Path locates the offending value, dotted with bracketed indices,
	// e.g. "items[2].name". Empty for the document root.
	Path string

	// Kind classifies the failure.
	Kind IssueKind

	// Expected describes what the schema wanted.
	Expected string

	// Actual describes the received value.
	Actual string

	// Allowed holds the permitted literals in declaration order.
	// Only set for IssueEnum.
	Allowed []string
}

// Schema is a compiled JSON Schema. It keeps the raw map representation for
// serialization into prompts alongside the compiled validator.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// Raw returns the underlying map representation, useful for embedding the
// schema into prompts.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// JSON returns the schema serialized as indented JSON.
func (s *Schema) JSON() string {
	if s == nil {
		return ""
	}
	b, err := json.MarshalIndent(s.raw, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// Validate checks data against the schema. Returns nil if valid.
func (s *Schema) Validate(data any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	return s.compiled.Validate(data)
}

// ValidateDetailed checks data against the schema and returns every leaf
// failure as a structured issue, in the checker's evaluation order.
// A nil or empty return means the data is valid.
func (s *Schema) ValidateDetailed(data any) []FieldIssue {
	err := s.Validate(data)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []FieldIssue{{Kind: IssueCustom, Expected: "valid value", Actual: err.Error()}}
	}

	var issues []FieldIssue
	collectIssues(verr, &issues)
	return issues
}

// collectIssues walks the validation error tree depth-first, converting
// each leaf into one or more FieldIssue entries.
func collectIssues(verr *jsonschema.ValidationError, issues *[]FieldIssue) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			collectIssues(cause, issues)
		}
		return
	}

	path := renderPath(verr.InstanceLocation)

	switch k := verr.ErrorKind.(type) {
	case *kind.Type:
		*issues = append(*issues, FieldIssue{
			Path:     path,
			Kind:     IssueType,
			Expected: strings.Join(k.Want, " or "),
			Actual:   k.Got,
		})

	case *kind.Enum:
		allowed := make([]string, len(k.Want))
		for i, v := range k.Want {
			allowed[i] = literalString(v)
		}
		*issues = append(*issues, FieldIssue{
			Path:     path,
			Kind:     IssueEnum,
			Expected: "one of: " + strings.Join(allowed, ", "),
			Actual:   literalString(k.Got),
			Allowed:  allowed,
		})

	case *kind.Required:
		// One issue per missing property so corrective prompts can name
		// each field individually.
		for _, missing := range k.Missing {
			*issues = append(*issues, FieldIssue{
				Path:     joinPath(path, missing),
				Kind:     IssueMissing,
				Expected: "required property",
				Actual:   "missing",
			})
		}

	case *kind.Minimum:
		*issues = append(*issues, rangeIssue(path, ">=", k.Want, k.Got))
	case *kind.Maximum:
		*issues = append(*issues, rangeIssue(path, "<=", k.Want, k.Got))
	case *kind.ExclusiveMinimum:
		*issues = append(*issues, rangeIssue(path, ">", k.Want, k.Got))
	case *kind.ExclusiveMaximum:
		*issues = append(*issues, rangeIssue(path, "<", k.Want, k.Got))

	case *kind.MinLength:
		*issues = append(*issues, FieldIssue{
			Path:     path,
			Kind:     IssueRange,
			Expected: fmt.Sprintf("length >= %d", k.Want),
			Actual:   fmt.Sprintf("length %d", k.Got),
		})
	case *kind.MaxLength:
		*issues = append(*issues, FieldIssue{
			Path:     path,
			Kind:     IssueRange,
			Expected: fmt.Sprintf("length <= %d", k.Want),
			Actual:   fmt.Sprintf("length %d", k.Got),
		})
	case *kind.MinItems:
		*issues = append(*issues, FieldIssue{
			Path:     path,
			Kind:     IssueRange,
			Expected: fmt.Sprintf("at least %d item(s)", k.Want),
			Actual:   fmt.Sprintf("%d item(s)", k.Got),
		})
	case *kind.MaxItems:
		*issues = append(*issues, FieldIssue{
			Path:     path,
			Kind:     IssueRange,
			Expected: fmt.Sprintf("at most %d item(s)", k.Want),
			Actual:   fmt.Sprintf("%d item(s)", k.Got),
		})

	default:
		*issues = append(*issues, FieldIssue{
			Path:     path,
			Kind:     IssueCustom,
			Expected: verr.ErrorKind.LocalizedString(defaultPrinter),
			Actual:   "see expected",
		})
	}
}

var defaultPrinter = message.NewPrinter(language.English)

func rangeIssue(path, op string, want, got *big.Rat) FieldIssue {
	return FieldIssue{
		Path:     path,
		Kind:     IssueRange,
		Expected: op + " " + ratString(want),
		Actual:   ratString(got),
	}
}

// ratString renders a big.Rat as an integer when possible, otherwise with
// two decimal places.
func ratString(r *big.Rat) string {
	if r == nil {
		return ""
	}
	if r.IsInt() {
		return r.Num().String()
	}
	return r.FloatString(2)
}

// literalString renders an enum literal for display and distance matching.
func literalString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// renderPath converts instance location segments into a dotted path with
// bracketed array indices: ["items", "2", "name"] -> "items[2].name".
func renderPath(segments []string) string {
	var sb strings.Builder
	for _, seg := range segments {
		if isIndex(seg) {
			sb.WriteString("[")
			sb.WriteString(seg)
			sb.WriteString("]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(seg)
	}
	return sb.String()
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func isIndex(seg string) bool {
	if seg == "" {
		return false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Compile compiles a raw schema map into a validating Schema.
func Compile(raw map[string]any) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}

	schemaJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaData, err := jsonschema.UnmarshalJSON(strings.NewReader(string(schemaJSON)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Schema{raw: raw, compiled: compiled}, nil
}

// MustCompile is like Compile but panics on error. Use for schemas defined
// at init time.
func MustCompile(raw map[string]any) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}
