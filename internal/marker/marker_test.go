package marker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testMarker(t *testing.T, m ProcessMarker) {
	ctx := context.Background()

	got, err := m.Acquire(ctx, "msg-1")
	if err != nil || !got {
		t.Fatalf("first Acquire got=%t, err=%v", got, err)
	}
	got, err = m.Acquire(ctx, "msg-1")
	if err != nil || got {
		t.Fatalf("second Acquire got=%t, err=%v", got, err)
	}
	got, err = m.Acquire(ctx, "msg-2")
	if err != nil || !got {
		t.Fatalf("other msg Acquire got=%t, err=%v", got, err)
	}

	if err := m.Release(ctx, "msg-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	got, err = m.Acquire(ctx, "msg-1")
	if err != nil || !got {
		t.Fatalf("Acquire after Release got=%t, err=%v", got, err)
	}

	// Only one of many concurrent callers wins.
	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Acquire(ctx, "msg-race"); ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("wins got=%d, want=1", wins)
	}
}

func TestLocalMarker(t *testing.T) {
	testMarker(t, NewLocalMarker(time.Minute))
}

func TestRedisMarker(t *testing.T) {
	mr := miniredis.RunT(t)
	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cl.Close()

	m := NewRedisMarker(cl, time.Minute)
	testMarker(t, m)

	if !mr.Exists(redisKeyPrefix + "msg-2") {
		t.Fatalf("key for msg-2 not found")
	}
	mr.FastForward(2 * time.Minute)
	if got, _ := m.Acquire(context.Background(), "msg-2"); !got {
		t.Fatalf("Acquire after ttl got=false")
	}
}
