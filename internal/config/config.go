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
// Package config provides configuration loading for the rap server.
//
// Values are layered, later layers winning:
//   - built-in defaults
//   - a YAML file named by --config or the RAP_CONFIG environment variable
//   - the ADDRESS, PORT and DOMAIN environment variables
//   - command line flags that were set explicitly
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rap-project/rap-go/internal/logging"
	"github.com/rap-project/rap-go/pkg/cache"
	"github.com/rap-project/rap-go/pkg/transport"
)

// EnvConfigFile names the config file when --config is not given
const EnvConfigFile = "RAP_CONFIG"

// Config is the server configuration
type Config struct {
	// Address to listen on
	Address string `yaml:"address"`

	// Port to listen on
	Port int `yaml:"port"`

	// Domain local actors are hosted on; required
	Domain string `yaml:"domain"`

	// StrictHeaders rejects signatures covering headers absent from the request
	StrictHeaders bool `yaml:"strict_headers"`

	Fetch FetchConfig    `yaml:"fetch"`
	Cache CacheConfig    `yaml:"cache"`
	Log   logging.Config `yaml:"log"`
}

// FetchConfig bounds remote actor fetches
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxBodySize int64         `yaml:"max_body_size"`
}

// CacheConfig selects the remote key cache
type CacheConfig struct {
	// Backend is memory, redis or none
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig locates the shared cache
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Address: "0.0.0.0",
		Port:    3000,
		Fetch: FetchConfig{
			Timeout:     transport.DefaultFetchTimeout,
			MaxBodySize: transport.DefaultMaxBodySize,
		},
		Cache: CacheConfig{
			Backend: cache.BackendMemory,
			TTL:     cache.DefaultTTL,
			Redis: RedisConfig{
				Prefix: cache.DefaultRedisPrefix,
			},
		},
		Log: logging.Default(),
	}
}

// Load builds the configuration from defaults, the file at path (or
// RAP_CONFIG when path is empty) and the environment. A missing file is an
// error only when one was named.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file into c
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// ApplyEnv overrides address, port and domain from ADDRESS, PORT and DOMAIN
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("ADDRESS"); ok && v != "" {
		c.Address = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v, ok := lookup("DOMAIN"); ok && v != "" {
		c.Domain = v
	}
	return nil
}

// ListenAddr returns address:port
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// KeyCache converts the cache section for cache.New
func (c *Config) KeyCache() cache.Config {
	return cache.Config{
		Backend: c.Cache.Backend,
		TTL:     c.Cache.TTL,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			Prefix:   c.Cache.Redis.Prefix,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Domain == "" {
		errs = append(errs, errors.New("domain is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch.timeout must be positive"))
	}
	if c.Fetch.MaxBodySize <= 0 {
		errs = append(errs, errors.New("fetch.max_body_size must be positive"))
	}

	switch c.Cache.Backend {
	case cache.BackendMemory, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be one of: %s, %s, %s",
			cache.BackendMemory, cache.BackendRedis, cache.BackendNone))
	}
	if c.Cache.Backend != cache.BackendNone && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}

	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
