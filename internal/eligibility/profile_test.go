package eligibility

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  Number
	}{
		{name: "int", input: 25, want: Known(25)},
		{name: "float", input: 80000.5, want: Known(80000.5)},
		{name: "json number", input: json.Number("120000"), want: Known(120000)},
		{name: "numeric text", input: "70", want: Known(70)},
		{name: "padded numeric text", input: "  18 ", want: Known(18)},
		{name: "decimal text", input: "60.0", want: Known(60)},
		{name: "fraction is kept", input: "60.5", want: Known(60.5)},
		{name: "zero is a real value", input: 0, want: Known(0)},
		{name: "nil", input: nil, want: Number{}},
		{name: "empty text", input: "", want: Number{}},
		{name: "blank text", input: "   ", want: Number{}},
		{name: "words", input: "twenty", want: Number{}},
		{name: "trailing junk", input: "25abc", want: Number{}},
		{name: "unit suffix", input: "25 years", want: Number{}},
		{name: "boolean", input: true, want: Number{}},
		{name: "NaN text", input: "NaN", want: Number{}},
		{name: "NaN float", input: math.NaN(), want: Number{}},
		{name: "infinity", input: "+Inf", want: Number{}},
		{name: "object", input: map[string]any{"value": 1}, want: Number{}},
		{name: "array", input: []any{25}, want: Number{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.input))
		})
	}
}

func TestParseText(t *testing.T) {
	assert.Equal(t, "farmer", ParseText("farmer"))
	assert.Equal(t, " Farmer ", ParseText(" Farmer "), "text is not normalized")
	assert.Equal(t, "", ParseText(42))
	assert.Equal(t, "", ParseText(nil))
	assert.Equal(t, "", ParseText([]any{"farmer"}))
}

func TestParseProfile(t *testing.T) {
	p := ParseProfile(RawProfile{
		Age:        "25",
		Income:     json.Number("80000"),
		Occupation: "farmer",
		Caste:      "General",
		Gender:     "male",
		State:      "Bihar",
		District:   "Patna",
	})

	assert.Equal(t, Profile{
		Age:        Known(25),
		Income:     Known(80000),
		Occupation: "farmer",
		Caste:      "General",
		Gender:     "male",
		State:      "Bihar",
		District:   "Patna",
	}, p)

	assert.Equal(t, Profile{}, ParseProfile(RawProfile{}))
}

func TestNumberString(t *testing.T) {
	assert.Equal(t, "invalid", Number{}.String())
	assert.Equal(t, "80000", Known(80000).String())
	assert.Equal(t, "17.5", Known(17.5).String())
}
