package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreSQLite    = "sqlite"
	StorePostgres  = "postgres"
	StoreRedis     = "redis"
	StoreDatastore = "datastore"
	StoreRiak      = "riak"
	StoreMemory    = "memory"
)

type Config struct {
	Port            string
	Store           string
	SQLitePath      string
	DatabaseURL     string
	RedisAddr       string
	RedisKey        string
	RiakAddr        string
	ProjectID       string
	DatastoreKind   string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3000")
	v.SetDefault("COUNTER_STORE", StoreSQLite)
	v.SetDefault("SQLITE_PATH", "./clicks.db")
	v.SetDefault("REDIS_KEY", "item_clicks")
	v.SetDefault("DATASTORE_KIND", "ItemClick")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg := &Config{
		Port:            v.GetString("PORT"),
		Store:           v.GetString("COUNTER_STORE"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisKey:        v.GetString("REDIS_KEY"),
		RiakAddr:        v.GetString("RIAK_ADDR"),
		ProjectID:       v.GetString("PROJECT_ID"),
		DatastoreKind:   v.GetString("DATASTORE_KIND"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected store has what it needs to connect.
// Store names are case-insensitive and normalized to lower case.
func (c *Config) Validate() error {
	c.Store = strings.ToLower(c.Store)
	switch c.Store {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must be set for store %s", c.Store)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for store %s", c.Store)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must be set for store %s", c.Store)
		}
	case StoreRiak:
		if c.RiakAddr == "" {
			return fmt.Errorf("RIAK_ADDR must be set for store %s", c.Store)
		}
	case StoreDatastore, StoreMemory:
	default:
		return fmt.Errorf("unknown COUNTER_STORE: %s", c.Store)
	}

	if c.Port == "" {
		c.Port = "3000"
	}
	return nil
}
