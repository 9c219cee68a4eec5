// Copyright (C) 2025 RAP Project
//
// This file is part of rap-go.
//
// rap-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// rap-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with rap-go.  If not, see <https://www.gnu.org/licenses/>.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rap-project/rap-go/pkg/protocol"
)

// DefaultRedisPrefix namespaces cache keys
const DefaultRedisPrefix = "rap:pubkey:"

// RedisConfig holds connection settings for RedisCache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisCache shares fetched keys between server replicas
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects lazily to cfg.Addr
func NewRedisCache(cfg RedisConfig, ttl time.Duration) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisCacheFromClient(client, cfg.Prefix, ttl), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, keyID string) (protocol.PublicKey, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+keyID).Bytes()
	if errors.Is(err, redis.Nil) {
		return protocol.PublicKey{}, false, nil
	}
	if err != nil {
		return protocol.PublicKey{}, false, fmt.Errorf("redis cache get: %w", err)
	}

	r, err := decode(data)
	if err != nil {
		return protocol.PublicKey{}, false, err
	}
	return r.Key, true, nil
}

func (c *RedisCache) Set(ctx context.Context, keyID string, key protocol.PublicKey) error {
	data, err := encode(key, time.Now().Add(c.ttl))
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.prefix+keyID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keyID string) error {
	if err := c.client.Del(ctx, c.prefix+keyID).Err(); err != nil {
		return fmt.Errorf("redis cache delete: %w", err)
	}
	return nil
}

// Ping checks connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
