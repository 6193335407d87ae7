package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// drainTimeout bounds how long Run keeps flushing queued events after its
// context is cancelled.
const drainTimeout = 5 * time.Second

// Worker consumes events from an inbox and writes them to a sink. Sink
// failures are logged and the event is discarded.
type Worker struct {
	sink   Sink
	inbox  <-chan CheckEvent
	logger *zap.Logger
}

func NewWorker(sink Sink, inbox <-chan CheckEvent, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run blocks until ctx is done, then flushes whatever is already queued.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case event := <-w.inbox:
			w.write(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.write(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) write(ctx context.Context, event CheckEvent) {
	if err := w.sink.Write(ctx, event); err != nil {
		w.logger.Warn("failed to write check event",
			zap.String("event_id", event.ID),
			zap.String("request_id", event.RequestID),
			zap.Error(err),
		)
	}
}
