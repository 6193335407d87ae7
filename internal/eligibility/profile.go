package eligibility

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// RawProfile is an applicant profile as submitted by a caller. Numeric fields
// may arrive as JSON numbers or text; nothing is required.
type RawProfile struct {
	Age        any `json:"age"`
	Income     any `json:"income"`
	Occupation any `json:"occupation"`
	Caste      any `json:"caste"`
	Gender     any `json:"gender"`
	State      any `json:"state"`
	District   any `json:"district"`
}

// Number is a parsed numeric attribute. An invalid Number fails every
// criterion defined on its field.
type Number struct {
	Value float64
	Valid bool
}

// Known returns a valid Number.
func Known(v float64) Number {
	return Number{Value: v, Valid: true}
}

func (n Number) String() string {
	if !n.Valid {
		return "invalid"
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// Profile is the normalized applicant used by the evaluator. District is
// carried for callers but no criterion reads it.
type Profile struct {
	Age        Number
	Income     Number
	Occupation string
	Caste      string
	Gender     string
	State      string
	District   string
}

// ParseProfile normalizes a raw profile. It never fails: values that cannot
// be interpreted become invalid numbers or empty strings.
func ParseProfile(raw RawProfile) Profile {
	return Profile{
		Age:        ParseNumber(raw.Age),
		Income:     ParseNumber(raw.Income),
		Occupation: ParseText(raw.Occupation),
		Caste:      ParseText(raw.Caste),
		Gender:     ParseText(raw.Gender),
		State:      ParseText(raw.State),
		District:   ParseText(raw.District),
	}
}

// ParseNumber coerces v to a finite float. Numbers and numeric strings are
// accepted; nil, blank strings, booleans, NaN, infinities, and anything cast
// cannot convert produce an invalid Number.
func ParseNumber(v any) Number {
	switch x := v.(type) {
	case nil, bool:
		return Number{}
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return Number{}
		}
		v = x
	case json.Number:
		v = x.String()
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}
	}
	return Known(f)
}

// ParseText returns v when it is a string and "" otherwise. No trimming or
// case folding is applied; membership tests are exact.
func ParseText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
