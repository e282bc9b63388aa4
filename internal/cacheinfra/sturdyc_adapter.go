package cacheinfra

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

// Clock is the time source for per key expiry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// entry is what the sturdyc client stores. sturdyc has one TTL per client, so
// each entry carries its own deadline.
type entry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryService is an in-process cache backed by a sturdyc client.
type MemoryService struct {
	client *sturdyc.Client[entry]
	clock  Clock
}

// NewMemoryService validates the configuration and initializes a sturdyc client.
//
// Capacity, NumShards, MaxTTL and EvictionPercentage are passed to sturdyc.New().
func NewMemoryService(cfg MemoryConfig) (*MemoryService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}

	client := sturdyc.New[entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.MaxTTL,
		cfg.EvictionPercentage,
	)

	return &MemoryService{client: client, clock: clock}, nil
}

// Get returns the payload stored under key. Expired entries are removed and
// reported as a miss.
func (s *MemoryService) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !s.clock.Now().Before(e.expiresAt) {
		s.client.Delete(key)
		return nil, false, nil
	}
	return e.payload, true, nil
}

// Set stores value under key for ttl.
func (s *MemoryService) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.client.Set(key, entry{payload: value, expiresAt: s.clock.Now().Add(ttl)})
	return nil
}

// Delete removes a single entry from the cache.
func (s *MemoryService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// InvalidateKeys removes multiple entries from the cache.
func (s *MemoryService) InvalidateKeys(_ context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Keys lists the keys currently held, expired or not.
func (s *MemoryService) Keys() []string {
	return s.client.ScanKeys()
}

func (s *MemoryService) Ping(context.Context) error { return nil }

func (s *MemoryService) Close() error { return nil }
