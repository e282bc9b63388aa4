package testsupport

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-restaurant-api/cache"
)

// FailingCache is a cache.CacheService whose every call fails with
// cache.ErrUnavailable. It counts calls so tests can assert the cache was
// consulted.
type FailingCache struct {
	mu    sync.Mutex
	calls int
}

var _ cache.CacheService = (*FailingCache)(nil)

func (f *FailingCache) hit() error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return cache.ErrUnavailable
}

// Calls returns the number of calls received.
func (f *FailingCache) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FailingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, f.hit()
}

func (f *FailingCache) Set(context.Context, string, []byte, time.Duration) error {
	return f.hit()
}

func (f *FailingCache) Delete(context.Context, string) error { return f.hit() }

func (f *FailingCache) InvalidateKeys(context.Context, []string) error { return f.hit() }

func (f *FailingCache) Ping(context.Context) error { return f.hit() }

func (f *FailingCache) Close() error { return nil }

// FakeClock is a manually advanced clock. It satisfies cache.Clock and its Now
// method can be passed to repository.WithClock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
