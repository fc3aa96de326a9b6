package counter

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

// runStoreTests checks the Store contract against a fresh store per subtest.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("fresh store is empty", func(t *testing.T) {
		s := newStore(t)
		got, err := s.GetAll(ctx)
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("got=%v, want empty map", got)
		}
	})

	t.Run("initialize is idempotent", func(t *testing.T) {
		s := newStore(t)
		mustIncrement(t, s, "item-A")
		if err := s.Initialize(ctx); err != nil {
			t.Fatalf("second Initialize: %v", err)
		}
		assertCounts(t, s, map[string]int64{"item-A": 1})
	})

	t.Run("first increment creates 1", func(t *testing.T) {
		s := newStore(t)
		mustIncrement(t, s, "unseen")
		assertCounts(t, s, map[string]int64{"unseen": 1})
	})

	t.Run("sequential increments", func(t *testing.T) {
		for _, n := range []int{0, 1, 2, 7} {
			t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
				s := newStore(t)
				for i := 0; i < n; i++ {
					mustIncrement(t, s, "seq")
				}
				want := map[string]int64{}
				if n > 0 {
					want["seq"] = int64(n)
				}
				assertCounts(t, s, want)
			})
		}
	})

	t.Run("two items", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 3; i++ {
			mustIncrement(t, s, "item-A")
		}
		mustIncrement(t, s, "item-B")
		assertCounts(t, s, map[string]int64{"item-A": 3, "item-B": 1})
	})

	t.Run("opaque uids", func(t *testing.T) {
		s := newStore(t)
		uids := []string{"with space", "ユニコード", "a/b", "'; DROP TABLE item_clicks; --"}
		want := map[string]int64{}
		for _, uid := range uids {
			mustIncrement(t, s, uid)
			want[uid] = 1
		}
		assertCounts(t, s, want)
	})

	t.Run("concurrent increments lose nothing", func(t *testing.T) {
		s := newStore(t)
		const k = 50
		var wg sync.WaitGroup
		errs := make(chan error, k)
		for i := 0; i < k; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.Increment(ctx, "hot"); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("Increment: %v", err)
		}
		assertCounts(t, s, map[string]int64{"hot": k})
	})
}

func mustIncrement(t *testing.T, s Store, uid string) {
	t.Helper()
	if err := s.Increment(context.Background(), uid); err != nil {
		t.Fatalf("Increment(%q): %v", uid, err)
	}
}

func assertCounts(t *testing.T, s Store, want map[string]int64) {
	t.Helper()
	got, err := s.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	for uid, n := range got {
		if n == 0 {
			t.Fatalf("GetAll contains zero entry for %q", uid)
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v, want=%v", got, want)
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("disk unavailable")
	err := fmt.Errorf("handler: %w", storageError("increment", cause))

	if !IsStorageError(err) {
		t.Fatalf("IsStorageError got=false")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is cause got=false")
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "increment" {
		t.Fatalf("errors.As got=%v", se)
	}
	if got, want := se.Error(), "counter increment: disk unavailable"; got != want {
		t.Fatalf("got=%q, want=%q", got, want)
	}
	if storageError("increment", nil) != nil {
		t.Fatalf("nil cause must stay nil")
	}
	if IsStorageError(cause) {
		t.Fatalf("plain error reported as StorageError")
	}
}
