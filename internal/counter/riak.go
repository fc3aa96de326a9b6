package counter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	riak "github.com/basho/riak-go-client"
	"golang.org/x/sync/errgroup"
)

const (
	riakBucketType = "counters"
	riakBucket     = "item_clicks"

	riakFetchParallelism = 4
)

var _ Store = (*RiakStore)(nil)

// RiakStore keeps one CRDT counter per uid. The bucket type must be created
// with datatype=counter on the cluster.
type RiakStore struct {
	client *riak.Client
}

func NewRiakStore(addrs ...string) (*RiakStore, error) {
	cl, err := riak.NewClient(&riak.NewClientOptions{RemoteAddresses: addrs})
	if err != nil {
		return nil, fmt.Errorf("riak.NewClient: %w", err)
	}
	return &RiakStore{client: cl}, nil
}

func (s *RiakStore) Initialize(ctx context.Context) error {
	ok, err := s.client.Ping()
	if err != nil {
		return storageError("initialize", err)
	}
	if !ok {
		return storageError("initialize", errors.New("ping failed"))
	}
	return nil
}

func (s *RiakStore) GetAll(ctx context.Context) (map[string]int64, error) {
	cmd, err := riak.NewListKeysCommandBuilder().
		WithBucketType(riakBucketType).
		WithBucket(riakBucket).
		Build()
	if err != nil {
		return nil, storageError("getAll", err)
	}
	if err := s.client.Execute(cmd); err != nil {
		return nil, storageError("getAll", fmt.Errorf("list keys: %w", err))
	}

	// Riak has no bulk read for counters; fetch them a few at a time.
	counts := map[string]int64{}
	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(riakFetchParallelism)
	for _, uid := range cmd.(*riak.ListKeysCommand).Response.Keys {
		uid := uid
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, found, err := s.fetch(uid)
			if err != nil {
				return err
			}
			if found && n > 0 {
				mu.Lock()
				counts[uid] = n
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, storageError("getAll", err)
	}
	return counts, nil
}

func (s *RiakStore) fetch(uid string) (int64, bool, error) {
	cmd, err := riak.NewFetchCounterCommandBuilder().
		WithBucketType(riakBucketType).
		WithBucket(riakBucket).
		WithKey(uid).
		Build()
	if err != nil {
		return 0, false, err
	}
	if err := s.client.Execute(cmd); err != nil {
		return 0, false, fmt.Errorf("fetch %s: %w", uid, err)
	}
	res := cmd.(*riak.FetchCounterCommand).Response
	if res == nil || res.IsNotFound {
		return 0, false, nil
	}
	return res.CounterValue, true, nil
}

func (s *RiakStore) Increment(ctx context.Context, uid string) error {
	cmd, err := riak.NewUpdateCounterCommandBuilder().
		WithBucketType(riakBucketType).
		WithBucket(riakBucket).
		WithKey(uid).
		WithIncrement(1).
		Build()
	if err != nil {
		return storageError("increment", err)
	}
	return storageError("increment", s.client.Execute(cmd))
}

func (s *RiakStore) Close() error {
	return s.client.Stop()
}
