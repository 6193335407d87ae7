package handler

import (
	"bytes"
	"encoding/json"
	"errors"

	"schemefinder/internal/eligibility"
	dErrors "schemefinder/pkg/domain-errors"
)

var errNotObject = errors.New("body is not a JSON object")

// CheckEligibilityRequest is the HTTP request body for
// POST /api/check-eligibility. Every field is optional and loosely typed;
// values the evaluator cannot read fail their criteria instead of the request.
type CheckEligibilityRequest struct {
	Profile eligibility.RawProfile
}

// UnmarshalJSON accepts only a JSON object and keeps numbers as json.Number.
func (r *CheckEligibilityRequest) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return errNotObject
	}

	type rawProfile eligibility.RawProfile
	var p rawProfile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	r.Profile = eligibility.RawProfile(p)
	return nil
}

// Validate implements httputil.Validatable. Field content is not validated.
func (r *CheckEligibilityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}
