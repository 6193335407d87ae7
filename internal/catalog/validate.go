package catalog

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	dErrors "schemefinder/pkg/domain-errors"
	pstrings "schemefinder/pkg/platform/strings"
)

// normalizeScheme checks scheme invariants and returns a copy whose slices and
// maps are not shared with the input.
func normalizeScheme(s Scheme) (Scheme, error) {
	if s.ID <= 0 {
		return Scheme{}, invariant(s.ID, "id must be positive")
	}
	if strings.TrimSpace(s.Name[DefaultLocale]) == "" {
		return Scheme{}, invariant(s.ID, "name."+DefaultLocale+" is required")
	}

	rules, err := normalizeRules(s.ID, s.Eligibility)
	if err != nil {
		return Scheme{}, err
	}

	return Scheme{
		ID:                 s.ID,
		Name:               maps.Clone(s.Name),
		Description:        maps.Clone(s.Description),
		Eligibility:        rules,
		Link:               strings.TrimSpace(s.Link),
		ApplicationProcess: maps.Clone(s.ApplicationProcess),
		Documents:          slices.Clone(s.Documents),
	}, nil
}

func normalizeRules(id int, r RuleSet) (RuleSet, error) {
	var out RuleSet

	if r.Age != nil {
		if err := checkBounds(id, "age", r.Age.Min, r.Age.Max); err != nil {
			return RuleSet{}, err
		}
		out.Age = &Range{Min: copyBound(r.Age.Min), Max: copyBound(r.Age.Max)}
	}
	if r.Income != nil {
		if err := checkBounds(id, "income", nil, r.Income.Max); err != nil {
			return RuleSet{}, err
		}
		out.Income = &Ceiling{Max: copyBound(r.Income.Max)}
	}

	var err error
	if out.Occupation, err = normalizeValues(id, "occupation", r.Occupation); err != nil {
		return RuleSet{}, err
	}
	if out.Gender, err = normalizeValues(id, "gender", r.Gender); err != nil {
		return RuleSet{}, err
	}
	if out.Caste, err = normalizeValues(id, "caste", r.Caste); err != nil {
		return RuleSet{}, err
	}
	if out.States, err = normalizeValues(id, "states", r.States); err != nil {
		return RuleSet{}, err
	}
	return out, nil
}

func checkBounds(id int, field string, minV, maxV *float64) error {
	if minV != nil && *minV < 0 {
		return invariant(id, field+".min must not be negative")
	}
	if maxV != nil && *maxV < 0 {
		return invariant(id, field+".max must not be negative")
	}
	if minV != nil && maxV != nil && *minV > *maxV {
		return invariant(id, field+".min must not exceed "+field+".max")
	}
	return nil
}

// normalizeValues keeps nil as "unconstrained". A present set must keep at
// least one non-blank value after trimming.
func normalizeValues(id int, field string, values AllowedValues) (AllowedValues, error) {
	if values == nil {
		return nil, nil
	}
	cleaned := pstrings.DedupeAndTrim(values)
	if len(cleaned) == 0 {
		return nil, invariant(id, field+" must list at least one value")
	}
	return AllowedValues(cleaned), nil
}

func copyBound(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Bound(*v)
}

func invariant(id int, msg string) error {
	return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("scheme %d: %s", id, msg))
}
