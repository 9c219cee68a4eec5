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
// Package logging builds the zap logger used by the rap commands.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output formats
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects level, encoding and destination
type Config struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`

	// Format is json or console
	Format string `yaml:"format"`

	// File enables rotated file output; empty or "stderr" logs to stderr
	File string `yaml:"file"`

	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// Default returns info level JSON on stderr
func Default() Config {
	return Config{
		Level:      "info",
		Format:     FormatJSON,
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
	}
}

// Validate checks level and format
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Format {
	case FormatJSON, FormatConsole:
	default:
		return fmt.Errorf("log.format must be %s or %s, got %q", FormatJSON, FormatConsole, c.Format)
	}
	return nil
}

// New builds a logger from cfg
func New(cfg Config) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out, err := writer(cfg)
	if err != nil {
		return nil, err
	}
	return newWithSink(cfg, out), nil
}

func newWithSink(cfg Config, out zapcore.WriteSyncer) *zap.Logger {
	level, _ := zapcore.ParseLevel(cfg.Level)
	core := zapcore.NewCore(encoder(cfg.Format), out, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func encoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == FormatConsole {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// writer returns stderr or a rotated file
func writer(cfg Config) (zapcore.WriteSyncer, error) {
	path := strings.TrimSpace(cfg.File)
	if path == "" || path == "stderr" {
		return zapcore.Lock(zapcore.AddSync(os.Stderr)), nil
	}
	if path == "stdout" {
		return zapcore.Lock(zapcore.AddSync(os.Stdout)), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}), nil
}
