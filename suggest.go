package persuader

import (
	"sort"
	"strings"
)

// SuggestionEngine computes near-match candidates for mismatched enum
// values. Distances are Levenshtein-based; compound values (hyphen,
// underscore, or space separated) are compared segment-wise so that a value
// whose segments all appear in a candidate ranks ahead of a shorter
// candidate missing one of them.
type SuggestionEngine struct {
	// MaxSuggestions caps the returned candidates.
	MaxSuggestions int

	// ThresholdRatio bounds the accepted distance relative to the actual
	// value's length: candidates with distance > ThresholdRatio*len(actual)
	// are discarded.
	ThresholdRatio float64
}

// DefaultSuggestionEngine returns the engine with the default bounds:
// at most 2 suggestions, distance threshold 0.4 of the value length.
func DefaultSuggestionEngine() *SuggestionEngine {
	return &SuggestionEngine{
		MaxSuggestions: 2,
		ThresholdRatio: 0.4,
	}
}

// Suggest returns the closest permitted literals for the actual value,
// ascending by distance, ties broken by the literal's declared position in
// the enumeration. Returns nil when nothing is close enough.
func (e *SuggestionEngine) Suggest(actual string, allowed []string) []string {
	if actual == "" || len(allowed) == 0 {
		return nil
	}

	limit := int(e.ThresholdRatio * float64(len(actual)))

	type scored struct {
		literal  string
		distance int
	}
	candidates := make([]scored, 0, len(allowed))
	for _, literal := range allowed {
		if literal == actual {
			continue
		}
		d := e.distance(actual, literal)
		if d > limit {
			continue
		}
		candidates = append(candidates, scored{literal: literal, distance: d})
	}

	// Stable sort preserves declaration order for equal distances.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	max := e.MaxSuggestions
	if max <= 0 {
		max = 2
	}
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	if len(candidates) == 0 {
		return nil
	}

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.literal
	}
	return out
}

// distance computes the edit distance between the actual value and a
// candidate literal. Compound values are compared segment-wise: each of the
// actual value's segments is charged its cheapest Levenshtein distance to
// any candidate segment.
func (e *SuggestionEngine) distance(actual, candidate string) int {
	actualSegs := splitSegments(actual)
	candSegs := splitSegments(candidate)
	if len(actualSegs) <= 1 || len(candSegs) <= 1 {
		return levenshtein(actual, candidate)
	}

	total := 0
	for _, seg := range actualSegs {
		best := -1
		for _, cand := range candSegs {
			d := levenshtein(seg, cand)
			if best < 0 || d < best {
				best = d
			}
		}
		total += best
	}
	return total
}

func splitSegments(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
}

// levenshtein computes the edit distance between two strings using the
// two-row dynamic programming formulation.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
