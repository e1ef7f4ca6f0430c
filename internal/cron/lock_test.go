package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/nexus-commerce/pkg/redis"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLockIsExclusive(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	first, err := NewRedisLock(client, "nx:lock:cron", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, _ := NewRedisLock(client, "nx:lock:cron", time.Minute)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, err := second.Acquire(ctx); err != nil || ok {
		t.Fatalf("second acquire should fail: ok=%v err=%v", ok, err)
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, err := second.Acquire(ctx); err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseKeepsForeignOwner(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	stale, _ := NewRedisLock(client, "nx:lock:cron", time.Minute)
	if ok, _ := stale.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	mr.FastForward(2 * time.Minute)

	current, _ := NewRedisLock(client, "nx:lock:cron", time.Minute)
	if ok, _ := current.Acquire(ctx); !ok {
		t.Fatal("expected acquire after expiry")
	}
	if err := stale.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if !mr.Exists("nx:lock:cron") {
		t.Fatal("stale owner removed the current lock")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "key", 0); err == nil {
		t.Fatal("expected error for nil client")
	}
	_, client := newRedis(t)
	if _, err := NewRedisLock(client, "", 0); err == nil {
		t.Fatal("expected error for empty key")
	}
}
