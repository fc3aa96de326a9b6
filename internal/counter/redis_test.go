package counter

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "item_clicks")
	t.Cleanup(func() { s.Close() })
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s, mr
}

func TestRedisStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		s, _ := newTestRedis(t)
		return s
	})
}

func TestRedisStoreLayout(t *testing.T) {
	s, mr := newTestRedis(t)
	mustIncrement(t, s, "item-A")
	mustIncrement(t, s, "item-A")

	if got := mr.HGet("item_clicks", "item-A"); got != "2" {
		t.Fatalf("hash field got=%q, want=2", got)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	s, mr := newTestRedis(t)
	mustIncrement(t, s, "item-A")
	mr.Close()

	if err := s.Increment(context.Background(), "item-A"); !IsStorageError(err) {
		t.Fatalf("Increment err=%v, want StorageError", err)
	}
	if _, err := s.GetAll(context.Background()); !IsStorageError(err) {
		t.Fatalf("GetAll err=%v, want StorageError", err)
	}
}

func TestRedisStoreCorruptField(t *testing.T) {
	s, mr := newTestRedis(t)
	mr.HSet("item_clicks", "broken", "NaN")

	if _, err := s.GetAll(context.Background()); !IsStorageError(err) {
		t.Fatalf("GetAll err=%v, want StorageError", err)
	}
}
