package persuader

import (
	"fmt"
	"strings"
)

// PromptBuilder constructs the initial prompt for a request and, after a
// failed attempt, a corrective prompt referencing the most recent errors.
//
// Corrective prompts include only the immediately preceding attempt's
// errors, never the full history, so prompt size stays bounded across
// retries.
type PromptBuilder struct{}

// NewPromptBuilder creates a PromptBuilder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Initial builds the first attempt's prompt: context, lens, schema-derived
// guidance, example output when present, then the input payload. When the
// request runs against an existing session, the context is omitted (the
// session already carries it).
func (b *PromptBuilder) Initial(req *Request) string {
	var sb strings.Builder

	if req.Context != "" && req.SessionID == "" {
		sb.WriteString(req.Context)
		sb.WriteString("\n\n")
	}

	if req.Lens != "" {
		sb.WriteString("Perspective: ")
		sb.WriteString(req.Lens)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Respond with a single JSON document matching this schema:\n")
	sb.WriteString(req.Schema.JSON())
	sb.WriteString("\n")

	if req.ExampleOutput != "" {
		sb.WriteString("\nExample output:\n")
		sb.WriteString(req.ExampleOutput)
		sb.WriteString("\n")
	}

	sb.WriteString("\nReturn only the JSON document, no commentary.\n")

	if req.Input != "" {
		sb.WriteString("\nInput:\n")
		sb.WriteString(req.Input)
	}

	return sb.String()
}

// Corrective builds a retry prompt from the previous attempt's errors: one
// concise line per error plus an explicit instruction to return only the
// corrected structured output.
func (b *PromptBuilder) Corrective(req *Request, previous []*FieldError) string {
	var sb strings.Builder

	sb.WriteString("The previous response failed validation. Fix these problems:\n")
	for _, fe := range previous {
		sb.WriteString("- ")
		sb.WriteString(correctiveLine(fe))
		sb.WriteString("\n")
	}

	sb.WriteString("\nReturn only the corrected JSON document matching the schema, no commentary.\n")
	return sb.String()
}

// Enhancement builds the prompt for one improvement round: the baseline
// answer is echoed back with a request for a strictly better version under
// the same schema.
func (b *PromptBuilder) Enhancement(req *Request, baselineRaw string) string {
	var sb strings.Builder

	sb.WriteString("Your previous answer was valid:\n")
	sb.WriteString(baselineRaw)
	sb.WriteString("\n\nImprove it: be more complete, specific, and precise while keeping ")
	sb.WriteString("the exact same JSON structure and satisfying the same schema.\n")
	if req.ExampleOutput != "" {
		sb.WriteString("\nAim for the level of detail in this example:\n")
		sb.WriteString(req.ExampleOutput)
		sb.WriteString("\n")
	}
	sb.WriteString("\nReturn only the improved JSON document, no commentary.\n")
	return sb.String()
}

// Probe is the minimal, low-cost prompt used by session health checks. A
// case-insensitive "ok" substring in the response signals validity.
func (b *PromptBuilder) Probe() string {
	return `Respond with exactly "ok".`
}

// correctiveLine renders one error as a single line: field path, expected,
// actual, and the top suggestion when one exists.
func correctiveLine(fe *FieldError) string {
	path := fe.Path
	if path == "" {
		path = "(response)"
	}

	line := fmt.Sprintf("%s: expected %s, got %s", path, fe.Expected, fe.Actual)
	if len(fe.Suggestions) > 0 {
		line += fmt.Sprintf(" (did you mean %q?)", fe.Suggestions[0])
	}
	return line
}
