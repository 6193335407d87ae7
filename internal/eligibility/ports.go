package eligibility

import (
	"context"
	"time"

	"schemefinder/internal/events"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Cache,Publisher

// Cache stores the matched scheme IDs for a profile fingerprint. Get returns
// sentinel.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]int, error)
	Set(ctx context.Context, key string, ids []int, ttl time.Duration) error
}

// Publisher receives one event per check.
type Publisher interface {
	Publish(ctx context.Context, event events.CheckEvent) error
}
