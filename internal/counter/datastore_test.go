package counter

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"
)

// Runs against the Datastore emulator when DATASTORE_EMULATOR_HOST is set.
func TestDatastoreStore(t *testing.T) {
	if os.Getenv("DATASTORE_EMULATOR_HOST") == "" {
		t.Skip("DATASTORE_EMULATOR_HOST is not set")
	}

	runStoreTests(t, func(t *testing.T) Store {
		ctx := context.Background()
		cl, err := datastore.NewClient(ctx, "click-counter-test")
		if err != nil {
			t.Fatalf("datastore.NewClient: %v", err)
		}
		// A kind per subtest keeps them isolated without deleting entities.
		s := NewDatastoreStore(cl, "ItemClick_"+uuid.New().String())
		t.Cleanup(func() { s.Close() })
		if err := s.Initialize(ctx); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		return s
	})
}
