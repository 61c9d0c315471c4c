package adapter

import (
	"context"
	"time"
)

// Locker guards a key so only one holder runs at a time.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
