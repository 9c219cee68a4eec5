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

	"github.com/allegro/bigcache/v3"

	"github.com/rap-project/rap-go/pkg/protocol"
)

// MemoryCache is an in-process KeyCache backed by bigcache.
//
// bigcache evicts whole windows at a coarse granularity, so every entry also
// carries its own expiry which Get checks against the clock.
type MemoryCache struct {
	cache *bigcache.BigCache
	ttl   time.Duration
	now   func() time.Time
}

// MemoryOption configures a MemoryCache
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryCache creates a cache whose entries live for ttl
func NewMemoryCache(ctx context.Context, ttl time.Duration, opts ...MemoryOption) (*MemoryCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 10 * 1024
	cfg.MaxEntrySize = 2048
	cfg.CleanWindow = ttl
	cfg.Verbose = false

	bc, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	c := &MemoryCache{cache: bc, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *MemoryCache) Get(_ context.Context, keyID string) (protocol.PublicKey, bool, error) {
	data, err := c.cache.Get(keyID)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return protocol.PublicKey{}, false, nil
	}
	if err != nil {
		return protocol.PublicKey{}, false, fmt.Errorf("memory cache get: %w", err)
	}

	r, err := decode(data)
	if err != nil {
		_ = c.cache.Delete(keyID)
		return protocol.PublicKey{}, false, err
	}
	if c.now().UnixNano() >= r.ExpiresAt {
		_ = c.cache.Delete(keyID)
		return protocol.PublicKey{}, false, nil
	}
	return r.Key, true, nil
}

func (c *MemoryCache) Set(_ context.Context, keyID string, key protocol.PublicKey) error {
	data, err := encode(key, c.now().Add(c.ttl))
	if err != nil {
		return err
	}
	if err := c.cache.Set(keyID, data); err != nil {
		return fmt.Errorf("memory cache set: %w", err)
	}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keyID string) error {
	err := c.cache.Delete(keyID)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("memory cache delete: %w", err)
	}
	return nil
}

// Len returns the number of stored entries, expired or not
func (c *MemoryCache) Len() int {
	return c.cache.Len()
}

func (c *MemoryCache) Close() error {
	return c.cache.Close()
}
