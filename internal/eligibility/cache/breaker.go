package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"schemefinder/pkg/platform/circuit"
	"schemefinder/pkg/platform/sentinel"
)

// Store is the cache contract guarded by Guarded.
type Store interface {
	Get(ctx context.Context, key string) ([]int, error)
	Set(ctx context.Context, key string, ids []int, ttl time.Duration) error
}

// Guarded short-circuits cache calls while the backing store keeps failing,
// so an outage costs one error per cooldown instead of one per request.
// Misses are not failures.
type Guarded struct {
	next    Store
	breaker *circuit.Breaker
	logger  *zap.Logger
}

func NewGuarded(next Store, breaker *circuit.Breaker, logger *zap.Logger) *Guarded {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) Get(ctx context.Context, key string) ([]int, error) {
	if !g.breaker.Allow() {
		return nil, sentinel.ErrUnavailable
	}
	ids, err := g.next.Get(ctx, key)
	g.record(err)
	return ids, err
}

func (g *Guarded) Set(ctx context.Context, key string, ids []int, ttl time.Duration) error {
	if !g.breaker.Allow() {
		return sentinel.ErrUnavailable
	}
	err := g.next.Set(ctx, key, ids, ttl)
	g.record(err)
	return err
}

func (g *Guarded) record(err error) {
	if err == nil || errors.Is(err, sentinel.ErrNotFound) {
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.logger.Info("cache circuit closed", zap.String("breaker", g.breaker.Name()))
		}
		return
	}
	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.logger.Warn("cache circuit opened", zap.String("breaker", g.breaker.Name()), zap.Error(err))
	}
}
