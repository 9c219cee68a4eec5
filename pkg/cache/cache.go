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
// Package cache stores remote public-key documents between verifications.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rap-project/rap-go/pkg/protocol"
)

// Backend names accepted by config
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// DefaultTTL is how long a fetched key is trusted before it is fetched again
const DefaultTTL = 10 * time.Minute

// KeyCache caches public-key documents by key id
type KeyCache interface {
	// Get returns the cached key; ok is false on a miss or an expired entry
	Get(ctx context.Context, keyID string) (key protocol.PublicKey, ok bool, err error)

	// Set stores key under keyID for the cache's TTL
	Set(ctx context.Context, keyID string, key protocol.PublicKey) error

	// Delete drops keyID
	Delete(ctx context.Context, keyID string) error

	// Close releases resources
	Close() error
}

// record is the stored form of a cached key
type record struct {
	Key       protocol.PublicKey `json:"key"`
	ExpiresAt int64              `json:"expiresAt"`
}

func encode(key protocol.PublicKey, expiresAt time.Time) ([]byte, error) {
	data, err := json.Marshal(record{Key: key, ExpiresAt: expiresAt.UnixNano()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache record: %w", err)
	}
	return data, nil
}

func decode(data []byte) (record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return record{}, fmt.Errorf("failed to decode cache record: %w", err)
	}
	return r, nil
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(context.Context, string) (protocol.PublicKey, bool, error) {
	return protocol.PublicKey{}, false, nil
}

func (NopCache) Set(context.Context, string, protocol.PublicKey) error { return nil }

func (NopCache) Delete(context.Context, string) error { return nil }

func (NopCache) Close() error { return nil }
