package counter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps all counts as fields of one hash.
type RedisStore struct {
	key    string
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	return &RedisStore{key: key, client: client}
}

func (s *RedisStore) Initialize(ctx context.Context) error {
	return storageError("initialize", s.client.Ping(ctx).Err())
}

func (s *RedisStore) GetAll(ctx context.Context) (map[string]int64, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, storageError("getAll", err)
	}

	counts := make(map[string]int64, len(fields))
	for uid, v := range fields {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, storageError("getAll", fmt.Errorf("field %q: %w", uid, err))
		}
		if n > 0 {
			counts[uid] = n
		}
	}
	return counts, nil
}

func (s *RedisStore) Increment(ctx context.Context, uid string) error {
	return storageError("increment", s.client.HIncrBy(ctx, s.key, uid, 1).Err())
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
