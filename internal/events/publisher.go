package events

import (
	"context"
	"fmt"
	"sync/atomic"

	"schemefinder/pkg/platform/sentinel"
)

// DefaultBuffer is used when NewAsyncPublisher is given a non-positive size.
const DefaultBuffer = 1024

// AsyncPublisher queues events on a bounded channel for a Worker to drain.
type AsyncPublisher struct {
	queue   chan CheckEvent
	dropped atomic.Int64
	onDrop  func()
}

// PublisherOption configures an AsyncPublisher.
type PublisherOption func(*AsyncPublisher)

// WithDropHook registers fn to run each time an event is dropped.
func WithDropHook(fn func()) PublisherOption {
	return func(p *AsyncPublisher) {
		p.onDrop = fn
	}
}

func NewAsyncPublisher(buffer int, opts ...PublisherOption) *AsyncPublisher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	p := &AsyncPublisher{queue: make(chan CheckEvent, buffer)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish enqueues event without blocking. A full queue drops the event and
// returns sentinel.ErrBufferFull.
func (p *AsyncPublisher) Publish(_ context.Context, event CheckEvent) error {
	select {
	case p.queue <- event:
		return nil
	default:
		p.dropped.Add(1)
		if p.onDrop != nil {
			p.onDrop()
		}
		return fmt.Errorf("publish event %s: %w", event.ID, sentinel.ErrBufferFull)
	}
}

// Inbox is the channel a Worker drains.
func (p *AsyncPublisher) Inbox() <-chan CheckEvent {
	return p.queue
}

// Dropped returns how many events were rejected because the queue was full.
func (p *AsyncPublisher) Dropped() int64 {
	return p.dropped.Load()
}
