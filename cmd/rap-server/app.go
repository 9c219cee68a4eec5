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
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rap-project/rap-go/internal/config"
	"github.com/rap-project/rap-go/internal/metrics"
	"github.com/rap-project/rap-go/pkg/cache"
	"github.com/rap-project/rap-go/pkg/keystore"
	"github.com/rap-project/rap-go/pkg/server"
	"github.com/rap-project/rap-go/pkg/signature"
	"github.com/rap-project/rap-go/pkg/transport"
	"github.com/rap-project/rap-go/pkg/verifier"
)

const shutdownTimeout = 10 * time.Second

// app wires the server components from a validated config
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *keystore.Store
	cache   cache.KeyCache
	metrics *metrics.Metrics
	handler http.Handler
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	store := keystore.New(cfg.Domain, keystore.WithLogger(logger))

	m := metrics.New()
	m.TrackActors(store.Len)

	keyCache, err := cache.New(ctx, cfg.KeyCache())
	if err != nil {
		return nil, fmt.Errorf("failed to create key cache: %w", err)
	}

	fetcher := transport.NewHTTPActorFetcher(
		&http.Client{},
		transport.WithTimeout(cfg.Fetch.Timeout),
		transport.WithMaxBodySize(cfg.Fetch.MaxBodySize),
		transport.WithLogger(logger),
	)
	remote := verifier.NewRemoteKeyResolver(
		fetcher,
		verifier.WithCache(keyCache),
		verifier.WithFetchTimeout(cfg.Fetch.Timeout),
		verifier.WithResolverLogger(logger),
		verifier.WithResolverObserver(m),
	)
	resolver := verifier.NewDefaultKeyResolver(verifier.NewLocalKeyResolver(store), remote)

	policy := signature.MissingHeaderLenient
	if cfg.StrictHeaders {
		policy = signature.MissingHeaderStrict
	}
	v := verifier.NewDefaultHTTPVerifier(
		resolver,
		verifier.WithMissingHeaderPolicy(policy),
		verifier.WithLogger(logger),
		verifier.WithObserver(m),
	)

	router, err := server.NewRouter(server.Deps{
		Store:      store,
		Verifier:   v,
		Sink:       server.LoggingSink{Logger: logger},
		Logger:     logger,
		Metrics:    m.Handler(),
		Middleware: []gin.HandlerFunc{m.Middleware()},
	})
	if err != nil {
		_ = keyCache.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		cache:   keyCache,
		metrics: m,
		handler: router,
	}, nil
}

// serve listens on the configured address until ctx is done
func (a *app) serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.ListenAddr(), err)
	}
	return a.serveListener(ctx, ln)
}

func (a *app) serveListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("domain", a.cfg.Domain),
		)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (a *app) Close() error {
	return a.cache.Close()
}
