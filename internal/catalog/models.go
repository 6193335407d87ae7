package catalog

import "slices"

// Supported locales for localized scheme text. Every scheme must carry the
// default locale; other locales are optional.
const (
	LocaleEnglish = "english"
	LocaleHindi   = "hindi"

	DefaultLocale = LocaleEnglish
)

// LocalizedText maps a locale name to text in that locale.
type LocalizedText map[string]string

// In returns the text for locale, falling back to the default locale.
func (t LocalizedText) In(locale string) string {
	if s, ok := t[locale]; ok && s != "" {
		return s
	}
	return t[DefaultLocale]
}

// Scheme is a government welfare program and the rules that decide who
// qualifies for it. Schemes are immutable once the catalog is built.
type Scheme struct {
	ID                 int           `json:"id"`
	Name               LocalizedText `json:"name"`
	Description        LocalizedText `json:"description"`
	Eligibility        RuleSet       `json:"eligibility"`
	Link               string        `json:"link,omitempty"`
	ApplicationProcess LocalizedText `json:"applicationProcess,omitempty"`
	Documents          []string      `json:"documents,omitempty"`
}

// RuleSet is the sparse set of criteria a scheme imposes. A nil field means
// the dimension is unconstrained; every non-nil field must pass.
type RuleSet struct {
	Age        *Range        `json:"age,omitempty"`
	Income     *Ceiling      `json:"income,omitempty"`
	Occupation AllowedValues `json:"occupation,omitempty"`
	Gender     AllowedValues `json:"gender,omitempty"`
	Caste      AllowedValues `json:"caste,omitempty"`
	States     AllowedValues `json:"states,omitempty"`
}

// IsEmpty reports whether the rule set constrains nothing.
func (r RuleSet) IsEmpty() bool {
	return r.Age == nil && r.Income == nil &&
		r.Occupation == nil && r.Gender == nil && r.Caste == nil && r.States == nil
}

// Range is an inclusive numeric interval with optional ends.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Ceiling is an inclusive upper bound. Income criteria have no lower bound.
type Ceiling struct {
	Max *float64 `json:"max,omitempty"`
}

// Allows reports whether v is at or below the ceiling.
func (c Ceiling) Allows(v float64) bool {
	return c.Max == nil || v <= *c.Max
}

// AllowedValues is the exact, case-sensitive set of accepted values for a
// categorical criterion.
type AllowedValues []string

// Contains reports whether v is one of the allowed values.
func (a AllowedValues) Contains(v string) bool {
	return slices.Contains(a, v)
}

// State is a state and the districts the UI offers for it.
type State struct {
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
}

// Locations lists the states and districts known to the catalog.
type Locations struct {
	States []State `json:"states"`
}

// Translations maps locale to UI string key to text.
type Translations map[string]map[string]string

// Document is the raw catalog as read from a Source, before validation.
type Document struct {
	Schemes      []Scheme     `json:"schemes"`
	Locations    Locations    `json:"locations"`
	Translations Translations `json:"translations"`
}

// Bound is a convenience for building range and ceiling literals.
func Bound(v float64) *float64 {
	return &v
}
