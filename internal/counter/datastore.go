package counter

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"
)

var _ Store = (*DatastoreStore)(nil)

type itemClick struct {
	ClickCount int64 `datastore:"click_count,noindex"`
}

// DatastoreStore keeps one entity per uid, named by the uid.
// Datastore has no increment primitive, so Increment runs get and put in a
// transaction; the client retries it when a concurrent commit wins.
type DatastoreStore struct {
	client *datastore.Client
	kind   string
}

func NewDatastoreStore(client *datastore.Client, kind string) *DatastoreStore {
	return &DatastoreStore{client: client, kind: kind}
}

func (s *DatastoreStore) Initialize(ctx context.Context) error {
	return nil
}

func (s *DatastoreStore) GetAll(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	it := s.client.Run(ctx, datastore.NewQuery(s.kind))
	for {
		var rec itemClick
		key, err := it.Next(&rec)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, storageError("getAll", fmt.Errorf("Next: %w", err))
		}
		if rec.ClickCount > 0 {
			counts[key.Name] = rec.ClickCount
		}
	}
	return counts, nil
}

func (s *DatastoreStore) Increment(ctx context.Context, uid string) error {
	key := datastore.NameKey(s.kind, uid, nil)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		// May run more than once.
		var rec itemClick
		if err := tx.Get(key, &rec); err != nil && !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}
		rec.ClickCount++
		_, err := tx.Put(key, &rec)
		return err
	})
	return storageError("increment", err)
}

func (s *DatastoreStore) Close() error {
	return s.client.Close()
}
