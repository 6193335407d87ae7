package handler

import (
	"schemefinder/internal/catalog"
	"schemefinder/internal/eligibility"
)

// SchemesResponse is the HTTP response for GET /api/schemes.
type SchemesResponse struct {
	Schemes      []catalog.Scheme     `json:"schemes"`
	Locations    catalog.Locations    `json:"locations"`
	Translations catalog.Translations `json:"translations"`
}

// CheckEligibilityResponse is the HTTP response for
// POST /api/check-eligibility.
type CheckEligibilityResponse struct {
	EligibleSchemes []catalog.Scheme `json:"eligibleSchemes"`

	// Rejections is only set for ?explain=true, keyed by scheme ID.
	Rejections map[int][]string `json:"rejections,omitempty"`
}

// FromResult converts an explained check to a response.
func FromResult(result *eligibility.Result) *CheckEligibilityResponse {
	resp := &CheckEligibilityResponse{
		EligibleSchemes: result.Eligible,
		Rejections:      make(map[int][]string, len(result.Rejections)),
	}
	for id, failed := range result.Rejections {
		names := make([]string, 0, len(failed))
		for _, c := range failed {
			names = append(names, string(c))
		}
		resp.Rejections[id] = names
	}
	return resp
}
