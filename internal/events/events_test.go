package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"schemefinder/pkg/platform/sentinel"
)

// =============================================================================
// Check Event Pipeline Test Suite
// =============================================================================

type EventsSuite struct {
	suite.Suite
	sink *MemorySink
}

func TestEventsSuite(t *testing.T) {
	suite.Run(t, new(EventsSuite))
}

func (s *EventsSuite) SetupTest() {
	s.sink = NewMemorySink()
}

func (s *EventsSuite) event(requestID string) CheckEvent {
	e := NewCheckEvent(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), requestID)
	e.MatchedIDs = []int{1, 4}
	return e
}

// runWorker starts a worker and returns a stop func that cancels it and
// waits for Run to return.
func (s *EventsSuite) runWorker(sink Sink, inbox <-chan CheckEvent, logger *zap.Logger) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(sink, inbox, logger).Run(ctx) }()
	return func() {
		cancel()
		s.Require().NoError(<-done)
	}
}

// =============================================================================
// Event Construction Tests
// =============================================================================

func (s *EventsSuite) TestNewCheckEvent() {
	a := s.event("req-1")
	b := s.event("req-1")

	s.NotEmpty(a.ID)
	s.NotEqual(a.ID, b.ID, "every event gets its own id")
	s.Equal("req-1", a.RequestID)
	s.Equal(2026, a.Timestamp.Year())
}

// =============================================================================
// AsyncPublisher Tests
// =============================================================================

func (s *EventsSuite) TestPublishQueuesUntilFull() {
	var drops atomic.Int32
	pub := NewAsyncPublisher(2, WithDropHook(func() { drops.Add(1) }))
	ctx := context.Background()

	s.Require().NoError(pub.Publish(ctx, s.event("a")))
	s.Require().NoError(pub.Publish(ctx, s.event("b")))

	err := pub.Publish(ctx, s.event("c"))
	s.Error(err)
	s.True(errors.Is(err, sentinel.ErrBufferFull))
	s.Equal(int64(1), pub.Dropped())
	s.Equal(int32(1), drops.Load())
	s.Len(pub.Inbox(), 2)
}

func (s *EventsSuite) TestNonPositiveBufferUsesDefault() {
	pub := NewAsyncPublisher(0)
	s.Equal(DefaultBuffer, cap(pub.queue))
}

// =============================================================================
// Worker Tests
// =============================================================================

func (s *EventsSuite) TestWorkerDeliversEvents() {
	pub := NewAsyncPublisher(8)
	stop := s.runWorker(s.sink, pub.Inbox(), zap.NewNop())

	s.Require().NoError(pub.Publish(context.Background(), s.event("req-1")))
	s.Eventually(func() bool { return len(s.sink.Events()) == 1 }, time.Second, 5*time.Millisecond)
	stop()

	got := s.sink.Events()
	s.Equal("req-1", got[0].RequestID)
	s.Equal([]int{1, 4}, got[0].MatchedIDs)
}

func (s *EventsSuite) TestWorkerFlushesQueueOnShutdown() {
	pub := NewAsyncPublisher(8)
	for _, id := range []string{"a", "b", "c"} {
		s.Require().NoError(pub.Publish(context.Background(), s.event(id)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.NoError(NewWorker(s.sink, pub.Inbox(), nil).Run(ctx))

	s.Len(s.sink.Events(), 3)
	s.Empty(pub.Inbox())
}

func (s *EventsSuite) TestWorkerSurvivesSinkFailure() {
	core, logs := observer.New(zap.WarnLevel)
	sink := &failingSink{failFirst: 1, next: s.sink}
	pub := NewAsyncPublisher(8)
	stop := s.runWorker(sink, pub.Inbox(), zap.New(core))

	s.Require().NoError(pub.Publish(context.Background(), s.event("lost")))
	s.Require().NoError(pub.Publish(context.Background(), s.event("kept")))
	s.Eventually(func() bool { return len(s.sink.Events()) == 1 }, time.Second, 5*time.Millisecond)
	stop()

	s.Equal("kept", s.sink.Events()[0].RequestID)
	s.Equal(1, logs.FilterMessage("failed to write check event").Len())
}

// =============================================================================
// LogSink Tests
// =============================================================================

func (s *EventsSuite) TestLogSinkWritesStructuredEntry() {
	core, logs := observer.New(zap.InfoLevel)
	e := s.event("req-9")
	e.CatalogVersion = "abc"
	e.Profile = ProfileSummary{AgeKnown: true, Occupation: "farmer", State: "Bihar"}

	s.Require().NoError(NewLogSink(zap.New(core)).Write(context.Background(), e))

	entries := logs.FilterMessage("eligibility check").All()
	s.Require().Len(entries, 1)
	fields := entries[0].ContextMap()
	s.Equal("req-9", fields["request_id"])
	s.Equal("abc", fields["catalog_version"])
	s.Equal("farmer", fields["occupation"])
	s.Equal(true, fields["age_known"])
	s.Equal(false, fields["income_known"])
}

type failingSink struct {
	failFirst int
	calls     int
	next      Sink
}

func (f *failingSink) Write(ctx context.Context, e CheckEvent) error {
	f.calls++
	if f.calls <= f.failFirst {
		return errors.New("sink offline")
	}
	return f.next.Write(ctx, e)
}
