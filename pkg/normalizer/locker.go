package normalizer

import (
	"context"
	"sync"
	"time"
)

// LockKey serializes normalization passes across processes.
const LockKey = "kodi:normalizer"

// Locker enforces the single-writer discipline of normalization passes.
type Locker interface {
	// WithLock runs fn while the lock is held. fn must use the context it is given; it is
	// cancelled if the lock is lost before fn returns.
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// LocalLocker serializes passes within one process.
type LocalLocker struct {
	mu sync.Mutex
}

func (l *LocalLocker) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}
