package eligibility

import (
	"schemefinder/internal/catalog"
)

// Criterion names one dimension of a rule set.
type Criterion string

const (
	CriterionAge        Criterion = "age"
	CriterionIncome     Criterion = "income"
	CriterionOccupation Criterion = "occupation"
	CriterionGender     Criterion = "gender"
	CriterionCaste      Criterion = "caste"
	CriterionStates     Criterion = "states"
)

func (c Criterion) String() string {
	return string(c)
}

// Criteria lists every criterion in evaluation order.
var Criteria = []Criterion{
	CriterionAge,
	CriterionIncome,
	CriterionOccupation,
	CriterionGender,
	CriterionCaste,
	CriterionStates,
}

// Assessment is the outcome of testing one rule set against one profile.
type Assessment struct {
	// Failed lists the present criteria that did not pass, in Criteria order.
	Failed []Criterion
}

// Eligible reports whether every present criterion passed.
func (a Assessment) Eligible() bool {
	return len(a.Failed) == 0
}

// Assess evaluates every present criterion of rules against p. Absent
// criteria are skipped; a rule set with none is always eligible.
// This is pure domain logic - no I/O, no side effects.
func Assess(rules catalog.RuleSet, p Profile) Assessment {
	var failed []Criterion

	if rules.Age != nil && !inRange(*rules.Age, p.Age) {
		failed = append(failed, CriterionAge)
	}
	if rules.Income != nil && !underCeiling(*rules.Income, p.Income) {
		failed = append(failed, CriterionIncome)
	}
	if rules.Occupation != nil && !rules.Occupation.Contains(p.Occupation) {
		failed = append(failed, CriterionOccupation)
	}
	if rules.Gender != nil && !rules.Gender.Contains(p.Gender) {
		failed = append(failed, CriterionGender)
	}
	if rules.Caste != nil && !rules.Caste.Contains(p.Caste) {
		failed = append(failed, CriterionCaste)
	}
	if rules.States != nil && !rules.States.Contains(p.State) {
		failed = append(failed, CriterionStates)
	}

	return Assessment{Failed: failed}
}

// Matches reports whether p satisfies every present criterion of rules.
func Matches(rules catalog.RuleSet, p Profile) bool {
	return Assess(rules, p).Eligible()
}

// inRange fails closed: an unknown value never satisfies a range.
func inRange(r catalog.Range, n Number) bool {
	return n.Valid && r.Contains(n.Value)
}

func underCeiling(c catalog.Ceiling, n Number) bool {
	return n.Valid && c.Allows(n.Value)
}
