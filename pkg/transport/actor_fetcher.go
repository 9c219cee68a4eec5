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
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	rap "github.com/rap-project/rap-go"
	"github.com/rap-project/rap-go/pkg/protocol"
)

const (
	// DefaultFetchTimeout bounds a single actor fetch
	DefaultFetchTimeout = 5 * time.Second

	// DefaultMaxBodySize caps the actor document read from a peer
	DefaultMaxBodySize int64 = 1 << 20
)

// ErrFetch is wrapped by every FetchActor failure
var ErrFetch = errors.New("failed to fetch actor")

// StatusError reports a non-2xx response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// ActorFetcher retrieves actor documents from remote servers
type ActorFetcher interface {
	// FetchActor GETs uri and decodes the actor document found there
	FetchActor(ctx context.Context, uri string) (*protocol.Actor, error)
}

// RequestHook is called on every outgoing request before it is sent,
// e.g. to sign it
type RequestHook func(req *http.Request) error

// HTTPActorFetcher implements ActorFetcher over HTTP
type HTTPActorFetcher struct {
	httpClient  *http.Client
	timeout     time.Duration
	maxBodySize int64
	userAgent   string
	hook        RequestHook
	logger      *zap.Logger
}

// FetcherOption configures an HTTPActorFetcher
type FetcherOption func(*HTTPActorFetcher)

// WithTimeout bounds each fetch; zero or negative leaves the default
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPActorFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxBodySize caps the number of body bytes read
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *HTTPActorFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPActorFetcher) {
		f.userAgent = ua
	}
}

// WithRequestHook installs a hook run on each request
func WithRequestHook(h RequestHook) FetcherOption {
	return func(f *HTTPActorFetcher) {
		f.hook = h
	}
}

// WithLogger sets the logger used for fetch diagnostics
func WithLogger(logger *zap.Logger) FetcherOption {
	return func(f *HTTPActorFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPActorFetcher creates a fetcher. A nil httpClient uses http.DefaultClient.
func NewHTTPActorFetcher(httpClient *http.Client, opts ...FetcherOption) *HTTPActorFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	f := &HTTPActorFetcher{
		httpClient:  httpClient,
		timeout:     DefaultFetchTimeout,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   "rap-go/" + rap.Version,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchActor GETs uri with the ActivityStreams Accept header. The fragment
// of a key id is not sent. No retries are made.
func (f *HTTPActorFetcher) FetchActor(ctx context.Context, uri string) (*protocol.Actor, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", protocol.LDJSONActivityStreams)
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.hook != nil {
		if err := f.hook(req); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetch, err)
		}
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	f.logger.Debug("fetched actor",
		zap.String("uri", uri),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %w", ErrFetch, &StatusError{URL: uri, StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrFetch, err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetch, f.maxBodySize)
	}

	var actor protocol.Actor
	if err := json.Unmarshal(body, &actor); err != nil {
		return nil, fmt.Errorf("%w: decoding actor: %w", ErrFetch, err)
	}
	if err := actor.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return &actor, nil
}
