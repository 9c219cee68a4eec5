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
package config

import (
	"github.com/spf13/pflag"
)

// Flag names
const (
	FlagConfig        = "config"
	FlagAddress       = "address"
	FlagPort          = "port"
	FlagDomain        = "domain"
	FlagStrictHeaders = "strict-headers"
	FlagFetchTimeout  = "fetch-timeout"
	FlagCacheBackend  = "cache-backend"
	FlagCacheTTL      = "cache-ttl"
	FlagRedisAddr     = "redis-addr"
	FlagLogLevel      = "log-level"
	FlagLogFormat     = "log-format"
	FlagLogFile       = "log-file"
)

// BindFlags registers the server flags on fs
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagConfig, "", "config file (default $"+EnvConfigFile+")")
	fs.StringP(FlagAddress, "a", d.Address, "address to listen on (env ADDRESS)")
	fs.IntP(FlagPort, "p", d.Port, "port to listen on (env PORT)")
	fs.StringP(FlagDomain, "d", d.Domain, "domain local actors are hosted on (env DOMAIN)")
	fs.Bool(FlagStrictHeaders, d.StrictHeaders, "reject signatures covering headers missing from the request")
	fs.Duration(FlagFetchTimeout, d.Fetch.Timeout, "timeout for fetching remote actors")
	fs.String(FlagCacheBackend, d.Cache.Backend, "remote key cache: memory, redis or none")
	fs.Duration(FlagCacheTTL, d.Cache.TTL, "how long fetched keys are cached")
	fs.String(FlagRedisAddr, d.Cache.Redis.Addr, "redis address for the redis cache backend")
	fs.String(FlagLogLevel, d.Log.Level, "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.Log.Format, "log format: json or console")
	fs.String(FlagLogFile, d.Log.File, "log file with rotation (default stderr)")
}

// ApplyFlags copies the flags that were set explicitly into c
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err == nil && fs.Changed(name) {
			err = apply()
		}
	}

	set(FlagAddress, func() (e error) { c.Address, e = fs.GetString(FlagAddress); return })
	set(FlagPort, func() (e error) { c.Port, e = fs.GetInt(FlagPort); return })
	set(FlagDomain, func() (e error) { c.Domain, e = fs.GetString(FlagDomain); return })
	set(FlagStrictHeaders, func() (e error) { c.StrictHeaders, e = fs.GetBool(FlagStrictHeaders); return })
	set(FlagFetchTimeout, func() (e error) { c.Fetch.Timeout, e = fs.GetDuration(FlagFetchTimeout); return })
	set(FlagCacheBackend, func() (e error) { c.Cache.Backend, e = fs.GetString(FlagCacheBackend); return })
	set(FlagCacheTTL, func() (e error) { c.Cache.TTL, e = fs.GetDuration(FlagCacheTTL); return })
	set(FlagRedisAddr, func() (e error) { c.Cache.Redis.Addr, e = fs.GetString(FlagRedisAddr); return })
	set(FlagLogLevel, func() (e error) { c.Log.Level, e = fs.GetString(FlagLogLevel); return })
	set(FlagLogFormat, func() (e error) { c.Log.Format, e = fs.GetString(FlagLogFormat); return })
	set(FlagLogFile, func() (e error) { c.Log.File, e = fs.GetString(FlagLogFile); return })
	return err
}

// FromFlags loads the configuration named by fs, applies explicit flags and
// validates the result
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
