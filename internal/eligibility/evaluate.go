package eligibility

import "schemefinder/internal/catalog"

// Evaluate returns the schemes whose rule sets p satisfies, in the order
// given. The result is never nil; no match yields an empty slice.
func Evaluate(p Profile, schemes []catalog.Scheme) []catalog.Scheme {
	matched := make([]catalog.Scheme, 0, len(schemes))
	for _, s := range schemes {
		if Matches(s.Eligibility, p) {
			matched = append(matched, s)
		}
	}
	return matched
}

// Outcome pairs a scheme with its assessment.
type Outcome struct {
	Scheme     catalog.Scheme
	Assessment Assessment
}

// EvaluateAll assesses every scheme, keeping order. Callers that need the
// reasons a scheme was excluded use this instead of Evaluate.
func EvaluateAll(p Profile, schemes []catalog.Scheme) []Outcome {
	out := make([]Outcome, 0, len(schemes))
	for _, s := range schemes {
		out = append(out, Outcome{Scheme: s, Assessment: Assess(s.Eligibility, p)})
	}
	return out
}
