package cacheinfra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	svc, err := NewRedisService(cfg)
	if err != nil {
		t.Fatalf("NewRedisService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc, mr
}

func TestRedisConfig_Validate(t *testing.T) {
	if err := DefaultRedisConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	cfg := DefaultRedisConfig()
	cfg.Addr = ""
	var cfgErr *ConfigError
	if err := cfg.Validate(); !errors.As(err, &cfgErr) || cfgErr.Field != "Addr" {
		t.Errorf("expected Addr config error, got %v", err)
	}

	cfg = DefaultRedisConfig()
	cfg.DB = -1
	if err := cfg.Validate(); !errors.As(err, &cfgErr) || cfgErr.Field != "DB" {
		t.Errorf("expected DB config error, got %v", err)
	}
}

func TestRedisService_SetGetWithTTL(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()

	if _, ok, err := svc.Get(ctx, "restaurant:1"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := svc.Set(ctx, "restaurant:1", []byte(`{"id":"1"}`), 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if ttl := mr.TTL("restaurant:1"); ttl != 5*time.Minute {
		t.Errorf("expected TTL 5m, got %v", ttl)
	}

	got, ok, err := svc.Get(ctx, "restaurant:1")
	if err != nil || !ok || string(got) != `{"id":"1"}` {
		t.Fatalf("unexpected Get result %q ok=%v err=%v", got, ok, err)
	}

	mr.FastForward(5*time.Minute + time.Second)

	if _, ok, _ := svc.Get(ctx, "restaurant:1"); ok {
		t.Error("expected entry to expire")
	}
}

func TestRedisService_InvalidateKeys(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()

	_ = svc.Set(ctx, "menu:1", []byte("a"), time.Minute)
	_ = svc.Set(ctx, "menus:all", []byte("b"), time.Minute)
	_ = svc.Set(ctx, "dish:1", []byte("c"), time.Minute)

	if err := svc.InvalidateKeys(ctx, []string{"menu:1", "menus:all", "menus_restaurant:5"}); err != nil {
		t.Fatalf("InvalidateKeys: %v", err)
	}
	if err := svc.InvalidateKeys(ctx, nil); err != nil {
		t.Fatalf("InvalidateKeys with no keys: %v", err)
	}
	if err := svc.Delete(ctx, "dish:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("expected empty keyspace, got %v", keys)
	}
}

func TestRedisService_ServerErrorsAreUnavailable(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()

	mr.SetError("ERR simulated failure")

	if _, _, err := svc.Get(ctx, "user:1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Get, got %v", err)
	}
	if err := svc.Set(ctx, "user:1", []byte("x"), time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Set, got %v", err)
	}
	if err := svc.Delete(ctx, "user:1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Delete, got %v", err)
	}
	if err := svc.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Ping, got %v", err)
	}

	mr.SetError("")
	if err := svc.Ping(ctx); err != nil {
		t.Errorf("expected ping to recover, got %v", err)
	}
}
