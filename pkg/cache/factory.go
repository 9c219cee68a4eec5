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
	"fmt"
	"time"
)

// Config selects and configures a KeyCache backend
type Config struct {
	Backend string
	TTL     time.Duration
	Redis   RedisConfig
}

// New builds the KeyCache named by cfg.Backend. An empty backend selects memory.
func New(ctx context.Context, cfg Config) (KeyCache, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryCache(ctx, cfg.TTL)
	case BackendRedis:
		return NewRedisCache(cfg.Redis, cfg.TTL)
	case BackendNone:
		return NopCache{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
