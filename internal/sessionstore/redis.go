// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/wabbit/wabbit/internal/auth"
)

// RedisConfig describes how to reach Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis stores sessions and reset tokens as plain Redis string keys.
type Redis struct {
	client redis.UniversalClient
}

// Compile-time interface check.
var _ auth.SessionStore = (*Redis)(nil)

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient) (*Redis, error) {
	if client == nil {
		return nil, oops.Errorf("redis client is required")
	}
	return &Redis{client: client}, nil
}

// DialRedis creates a client for cfg and verifies it answers PING.
func DialRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, oops.Code("REDIS_CONFIG_INVALID").Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	store := &Redis{client: client}
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

// Set stores value under key. A zero ttl keeps the key until it is deleted.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return oops.Code("SESSION_STORE_SET_FAILED").With("operation", "SET").Wrap(err)
	}
	return nil
}

// Get returns the value for key or auth.ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", auth.ErrNotFound
	}
	if err != nil {
		return "", oops.Code("SESSION_STORE_GET_FAILED").With("operation", "GET").Wrap(err)
	}
	return value, nil
}

// Delete removes key. Missing keys are not an error.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return oops.Code("SESSION_STORE_DELETE_FAILED").With("operation", "DEL").Wrap(err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return oops.Code("SESSION_STORE_UNAVAILABLE").With("operation", "PING").Wrap(err)
	}
	return nil
}

// Close releases the client's connections.
func (r *Redis) Close() error {
	return r.client.Close()
}
