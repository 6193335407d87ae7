// Package events carries eligibility-check events from the request path to
// an out-of-band sink (log, memory, or Kafka).
//
// Publishing is fire-and-forget: AsyncPublisher never blocks the caller and
// drops events when its buffer is full.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CheckEvent records one eligibility check. Raw age and income are not
// carried; only whether they could be read.
type CheckEvent struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	RequestID      string         `json:"request_id,omitempty"`
	CatalogVersion string         `json:"catalog_version"`
	MatchedIDs     []int          `json:"matched_ids"`
	Profile        ProfileSummary `json:"profile"`
}

// ProfileSummary is the non-sensitive view of the checked profile.
type ProfileSummary struct {
	AgeKnown    bool   `json:"age_known"`
	IncomeKnown bool   `json:"income_known"`
	Occupation  string `json:"occupation,omitempty"`
	Caste       string `json:"caste,omitempty"`
	Gender      string `json:"gender,omitempty"`
	State       string `json:"state,omitempty"`
	District    string `json:"district,omitempty"`
}

// NewCheckEvent stamps a fresh event ID and timestamp.
func NewCheckEvent(at time.Time, requestID string) CheckEvent {
	return CheckEvent{
		ID:        uuid.NewString(),
		Timestamp: at,
		RequestID: requestID,
	}
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ctx context.Context, event CheckEvent) error
}

// Sink persists or forwards events drained by a Worker.
type Sink interface {
	Write(ctx context.Context, event CheckEvent) error
}
