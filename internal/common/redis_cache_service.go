package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"infinite-experiment/flightlog/internal/logging"
)

const redisKeyPrefix = "flightlog:"

// RedisCacheService keeps entries in Redis so AeroAPI responses and code
// resolutions survive between command runs. Redis failures degrade to
// cache misses.
type RedisCacheService struct {
	client *redis.Client
	ctx    context.Context
	loads  loadGroup
}

var _ CacheInterface = (*RedisCacheService)(nil)

// NewRedisCacheService connects to addr and fails when Redis does not answer a ping
func NewRedisCacheService(ctx context.Context, addr, password string) (*RedisCacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Connected to Redis cache", "addr", addr)
	return &RedisCacheService{
		client: client,
		ctx:    ctx,
	}, nil
}

func (r *RedisCacheService) Set(key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("Cache value not storable", "key", key, "error", err)
		return
	}
	if err := r.client.Set(r.ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		logging.Warn("Redis set failed", "key", key, "error", err)
	}
}

func (r *RedisCacheService) Get(key string) (interface{}, bool) {
	data, err := r.client.Get(r.ctx, redisKeyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		logging.Warn("Redis get failed", "key", key, "error", err)
		return nil, false
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		logging.Warn("Cached value unreadable, dropping it", "key", key, "error", err)
		r.Delete(key)
		return nil, false
	}
	return value, true
}

func (r *RedisCacheService) Delete(key string) {
	if err := r.client.Del(r.ctx, redisKeyPrefix+key).Err(); err != nil {
		logging.Warn("Redis delete failed", "key", key, "error", err)
	}
}

func (r *RedisCacheService) GetOrSet(key string, ttl time.Duration, load func() (any, error)) (interface{}, error) {
	return r.loads.getOrSet(r, key, ttl, load)
}

func (r *RedisCacheService) Close() error {
	return r.client.Close()
}
