package config

import (
	"context"
	"fmt"

	"github.com/matzehuels/tokensync/pkg/cache"
	"github.com/matzehuels/tokensync/pkg/store"
	"github.com/matzehuels/tokensync/pkg/store/file"
	"github.com/matzehuels/tokensync/pkg/store/mongo"
	"github.com/matzehuels/tokensync/pkg/store/redis"
)

// OpenStore connects to the configured backend. The returned close function
// releases connections and is never nil.
func (c *Config) OpenStore(ctx context.Context) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.Store.Backend {
	case BackendMemory:
		return store.NewMemory(c.memoryOptions()), noop, nil

	case BackendFile:
		s, err := file.Open(c.Store.Path, c.memoryOptions())
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case BackendRedis:
		client, err := redis.Dial(ctx, c.Store.Redis.Addr, c.Store.Redis.Password, c.Store.Redis.DB)
		if err != nil {
			return nil, noop, err
		}
		s := redis.New(client, redis.Options{
			Prefix:   c.Store.Redis.Prefix,
			Profile:  c.Store.Profile,
			MaxModes: c.Store.MaxModes,
		})
		return s, client.Close, nil

	case BackendMongo:
		client, err := mongo.Connect(ctx, c.Store.Mongo.URI)
		if err != nil {
			return nil, noop, err
		}
		s := mongo.New(client.Database(c.Store.Mongo.Database), mongo.Options{
			Profile:  c.Store.Profile,
			MaxModes: c.Store.MaxModes,
		})
		return s, func() error { return client.Disconnect(context.Background()) }, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", c.Store.Backend)
}

func (c *Config) memoryOptions() store.MemoryOptions {
	return store.MemoryOptions{Profile: c.Store.Profile, MaxModes: c.Store.MaxModes}
}

// OpenCache returns the validation cache described by the config. A cache
// directory that cannot be created disables caching.
func (c *Config) OpenCache() cache.Cache {
	if c.Cache.Disabled {
		return cache.NewNullCache()
	}
	dir := c.Cache.Dir
	if dir == "" {
		d, err := CacheDir()
		if err != nil {
			return cache.NewNullCache()
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}
