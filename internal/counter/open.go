package counter

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/redis/go-redis/v9"
	"github.com/tckz/click-counter/internal/config"
)

// Open builds the store selected by cfg.Store and initializes it.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	s, err := build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func build(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.StorePostgres:
		return OpenPostgres(cfg.DatabaseURL)
	case config.StoreRedis:
		cl := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:        []string{cfg.RedisAddr},
			DialTimeout:  time.Second * 2,
			ReadTimeout:  time.Second * 2,
			WriteTimeout: time.Second * 2,
			PoolSize:     200,
			PoolTimeout:  time.Second * 5,
		})
		return NewRedisStore(cl, cfg.RedisKey), nil
	case config.StoreDatastore:
		cl, err := datastore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("datastore.NewClient: %w", err)
		}
		return NewDatastoreStore(cl, cfg.DatastoreKind), nil
	case config.StoreRiak:
		return NewRiakStore(cfg.RiakAddr)
	case config.StoreMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store: %s", cfg.Store)
}
