package persuader

import (
	"github.com/pmezard/go-difflib/difflib"
)

// EnhancementConfig bounds the optional improvement rounds that run after a
// baseline success. The zero value disables enhancement.
type EnhancementConfig struct {
	// Rounds is the maximum number of improvement rounds. Tracked on a
	// separate counter from the retry budget.
	Rounds int

	// MinImprovement is how much a candidate's score must exceed the
	// baseline's to replace it. 0 accepts any candidate scoring at least
	// as high as the baseline.
	MinImprovement float64

	// Evaluator scores candidates. When nil, the pipeline picks
	// SimilarityEvaluator if the request carries an example output and
	// CompletenessEvaluator otherwise.
	Evaluator Evaluator
}

// Candidate is a schema-valid value under enhancement consideration.
type Candidate struct {
	// Value is the decoded value.
	Value any

	// Raw is the response text the value was decoded from.
	Raw string
}

// Evaluator is the pluggable improvement metric. Evaluate scores the
// candidate; the baseline is supplied for relative metrics. Higher is
// better. The pipeline never accepts a candidate scoring below the
// baseline's own score plus MinImprovement.
type Evaluator interface {
	Evaluate(baseline, candidate *Candidate) float64
}

// SimilarityEvaluator scores candidates by line-level similarity to a
// reference text, typically the request's example output.
type SimilarityEvaluator struct {
	// Reference is the text candidates are compared against.
	Reference string
}

// Evaluate returns the difflib similarity ratio in [0, 1] between the
// candidate's raw text and the reference.
func (e *SimilarityEvaluator) Evaluate(_, candidate *Candidate) float64 {
	if candidate == nil {
		return 0
	}
	m := difflib.NewMatcher(
		difflib.SplitLines(e.Reference),
		difflib.SplitLines(candidate.Raw),
	)
	return m.Ratio()
}

// CompletenessEvaluator scores candidates by how thoroughly the decoded
// value is populated: each populated leaf counts 1, strings earn up to 1
// extra point as they grow. Used when no example output exists.
type CompletenessEvaluator struct{}

// Evaluate returns the completeness score of the candidate's value.
func (CompletenessEvaluator) Evaluate(_, candidate *Candidate) float64 {
	if candidate == nil {
		return 0
	}
	return completeness(candidate.Value)
}

func completeness(v any) float64 {
	switch t := v.(type) {
	case map[string]any:
		var sum float64
		for _, val := range t {
			sum += completeness(val)
		}
		return sum
	case []any:
		var sum float64
		for _, val := range t {
			sum += completeness(val)
		}
		return sum
	case string:
		if t == "" {
			return 0
		}
		extra := float64(len(t)) / 100
		if extra > 1 {
			extra = 1
		}
		return 1 + extra
	case bool:
		return 1
	case float64:
		return 1
	case nil:
		return 0
	default:
		return 1
	}
}

// defaultEvaluator picks the improvement metric for a request when none is
// configured.
func defaultEvaluator(req *Request) Evaluator {
	if req.Enhancement.Evaluator != nil {
		return req.Enhancement.Evaluator
	}
	if req.ExampleOutput != "" {
		return &SimilarityEvaluator{Reference: req.ExampleOutput}
	}
	return CompletenessEvaluator{}
}
