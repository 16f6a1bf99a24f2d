package cache

import (
	"context"
	"errors"
	"time"

	"github.com/voxelforge/chronicle/cache/local"
	cacheredis "github.com/voxelforge/chronicle/cache/redis"
)

// ErrMiss is returned when a key does not exist, regardless of backend.
var ErrMiss = errors.New("cache: miss")

// Cache is the KV surface the per-actor lookup and undo caches persist
// through. Values are small JSON documents keyed by actor identity.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

// Config holds configuration for both Redis and the in-process cache.
type Config struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
}

// New returns a Cache backed by Redis if RedisAddr is set (so several ops
// consoles can share one engine), otherwise an in-process cache.
func New(cfg Config) (Cache, error) {
	if cfg.RedisAddr != "" {
		rc, err := cacheredis.NewCache(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return &redisAdapter{rc: rc}, nil
	}
	lc, err := local.NewCache(local.Config{GCInterval: cfg.LocalGCInterval})
	if err != nil {
		return nil, err
	}
	return &localAdapter{lc: lc}, nil
}

// ---- adapters translating backend miss sentinels to cache.ErrMiss ----

type localAdapter struct {
	lc *local.LocalCache
}

func (a *localAdapter) Get(ctx context.Context, key string) (string, error) {
	v, err := a.lc.Get(ctx, key)
	if errors.Is(err, local.ErrNotFound) {
		return "", ErrMiss
	}
	return v, err
}

func (a *localAdapter) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return a.lc.Set(ctx, key, value, ttl)
}

func (a *localAdapter) Del(ctx context.Context, keys ...string) error {
	return a.lc.Del(ctx, keys...)
}

func (a *localAdapter) Close() error {
	a.lc.Close()
	return nil
}

type redisAdapter struct {
	rc *cacheredis.Cache
}

func (a *redisAdapter) Get(ctx context.Context, key string) (string, error) {
	v, err := a.rc.Get(ctx, key)
	if errors.Is(err, cacheredis.ErrNotFound) {
		return "", ErrMiss
	}
	return v, err
}

func (a *redisAdapter) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return a.rc.Set(ctx, key, value, ttl)
}

func (a *redisAdapter) Del(ctx context.Context, keys ...string) error {
	return a.rc.Del(ctx, keys...)
}

func (a *redisAdapter) Close() error {
	return a.rc.Close()
}
