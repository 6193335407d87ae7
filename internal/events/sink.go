package events

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// LogSink writes each event as a structured log line.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, event CheckEvent) error {
	s.logger.Info("eligibility check",
		zap.String("event_id", event.ID),
		zap.String("request_id", event.RequestID),
		zap.String("catalog_version", event.CatalogVersion),
		zap.Ints("matched_ids", event.MatchedIDs),
		zap.Bool("age_known", event.Profile.AgeKnown),
		zap.Bool("income_known", event.Profile.IncomeKnown),
		zap.String("occupation", event.Profile.Occupation),
		zap.String("state", event.Profile.State),
		zap.Time("timestamp", event.Timestamp),
	)
	return nil
}

// MemorySink keeps events in memory. Safe for concurrent use.
type MemorySink struct {
	mu     sync.Mutex
	events []CheckEvent
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(_ context.Context, event CheckEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemorySink) Events() []CheckEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}
