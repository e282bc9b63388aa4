package cacheinfra

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemory(t *testing.T) (*MemoryService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cfg := DefaultMemoryConfig()
	cfg.Clock = clock
	svc, err := NewMemoryService(cfg)
	if err != nil {
		t.Fatalf("NewMemoryService: %v", err)
	}
	return svc, clock
}

func TestDefaultMemoryConfig(t *testing.T) {
	cfg := DefaultMemoryConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}
	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}
	if cfg.MaxTTL != 5*time.Minute {
		t.Errorf("expected MaxTTL to be 5 minutes, got %v", cfg.MaxTTL)
	}
	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}
}

func TestMemoryConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*MemoryConfig)
		wantField string
	}{
		{name: "valid default config", mutate: func(*MemoryConfig) {}},
		{name: "zero capacity", mutate: func(c *MemoryConfig) { c.Capacity = 0 }, wantField: "Capacity"},
		{name: "negative shards", mutate: func(c *MemoryConfig) { c.NumShards = -1 }, wantField: "NumShards"},
		{name: "zero ttl", mutate: func(c *MemoryConfig) { c.MaxTTL = 0 }, wantField: "MaxTTL"},
		{name: "eviction too high", mutate: func(c *MemoryConfig) { c.EvictionPercentage = 101 }, wantField: "EvictionPercentage"},
		{name: "eviction too low", mutate: func(c *MemoryConfig) { c.EvictionPercentage = 0 }, wantField: "EvictionPercentage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMemoryConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestNewMemoryService_InvalidConfig(t *testing.T) {
	if _, err := NewMemoryService(MemoryConfig{}); err == nil {
		t.Fatal("expected error for zero config")
	}
}

func TestMemoryService_SetGet(t *testing.T) {
	svc, _ := newTestMemory(t)
	ctx := context.Background()

	if _, ok, err := svc.Get(ctx, "dish:1"); ok || err != nil {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	if err := svc.Set(ctx, "dish:1", []byte(`{"id":"1"}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := svc.Get(ctx, "dish:1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != `{"id":"1"}` {
		t.Errorf("unexpected payload %s", got)
	}
}

func TestMemoryService_PerKeyTTL(t *testing.T) {
	svc, clock := newTestMemory(t)
	ctx := context.Background()

	_ = svc.Set(ctx, "dishes:all", []byte(`[]`), 2*time.Minute)
	_ = svc.Set(ctx, "dish:1", []byte(`{}`), 5*time.Minute)

	clock.Advance(2*time.Minute + time.Second)

	if _, ok, _ := svc.Get(ctx, "dishes:all"); ok {
		t.Error("expected list entry to expire after its TTL")
	}
	if _, ok, _ := svc.Get(ctx, "dish:1"); !ok {
		t.Error("expected detail entry to survive the list TTL")
	}

	clock.Advance(3 * time.Minute)

	if _, ok, _ := svc.Get(ctx, "dish:1"); ok {
		t.Error("expected detail entry to expire after its TTL")
	}

	for _, key := range svc.Keys() {
		if key == "dish:1" || key == "dishes:all" {
			t.Errorf("expired key %q still held", key)
		}
	}
}

func TestMemoryService_DeleteAndInvalidate(t *testing.T) {
	svc, _ := newTestMemory(t)
	ctx := context.Background()

	for _, key := range []string{"menu:1", "menus:all", "menus_restaurant:2", "dish:9"} {
		_ = svc.Set(ctx, key, []byte("x"), time.Minute)
	}

	if err := svc.Delete(ctx, "menu:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.InvalidateKeys(ctx, []string{"menus:all", "menus_restaurant:2", "missing"}); err != nil {
		t.Fatalf("InvalidateKeys: %v", err)
	}

	keys := svc.Keys()
	sort.Strings(keys)
	if strings.Join(keys, ",") != "dish:9" {
		t.Errorf("expected only dish:9 to remain, got %v", keys)
	}
}

func TestMemoryService_Concurrent(t *testing.T) {
	svc, _ := newTestMemory(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = svc.Set(ctx, "user:1", []byte("v"), time.Minute)
				_, _, _ = svc.Get(ctx, "user:1")
				_ = svc.Delete(ctx, "user:1")
			}
		}()
	}
	wg.Wait()
}
