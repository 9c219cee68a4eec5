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
package verifier

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rap-project/rap-go/pkg/cache"
	"github.com/rap-project/rap-go/pkg/protocol"
	"github.com/rap-project/rap-go/pkg/transport"
)

// DefaultRefreshInterval is the minimum time between two fetches of the
// same key id triggered by RefreshKey
const DefaultRefreshInterval = time.Minute

// pruneThreshold is the size at which old fetch times are swept
const pruneThreshold = 1024

// ErrKeyBinding is returned when a fetched document does not belong to the
// key id it was fetched for
var ErrKeyBinding = errors.New("key document does not match key id")

// KeyRefresher is implemented by resolvers that cache keys. RefreshKey drops
// the cached key for keyID and fetches it again. ok is false when nothing
// was refetched, either because keyID was not cached or because it was
// fetched too recently.
type KeyRefresher interface {
	RefreshKey(ctx context.Context, keyID string) (key protocol.PublicKey, ok bool, err error)
}

// RemoteKeyResolver fetches the actor document at a key id and returns its
// publicKey block. Results are cached and concurrent fetches of the same key
// id share one request.
type RemoteKeyResolver struct {
	fetcher         transport.ActorFetcher
	cache           cache.KeyCache
	timeout         time.Duration
	refreshInterval time.Duration
	logger          *zap.Logger
	observer        Observer
	group           singleflight.Group
	now             func() time.Time

	mu          sync.Mutex
	lastFetched map[string]time.Time
}

// RemoteOption configures a RemoteKeyResolver
type RemoteOption func(*RemoteKeyResolver)

// WithCache sets the key cache; the default caches nothing
func WithCache(c cache.KeyCache) RemoteOption {
	return func(r *RemoteKeyResolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithFetchTimeout bounds each shared fetch
func WithFetchTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteKeyResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRefreshInterval limits how often RefreshKey refetches one key id.
// Zero lets every call refetch.
func WithRefreshInterval(d time.Duration) RemoteOption {
	return func(r *RemoteKeyResolver) {
		if d >= 0 {
			r.refreshInterval = d
		}
	}
}

// WithResolverLogger sets the logger
func WithResolverLogger(logger *zap.Logger) RemoteOption {
	return func(r *RemoteKeyResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolverObserver reports cache hits and fetch outcomes
func WithResolverObserver(o Observer) RemoteOption {
	return func(r *RemoteKeyResolver) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewRemoteKeyResolver creates a resolver over fetcher
func NewRemoteKeyResolver(fetcher transport.ActorFetcher, opts ...RemoteOption) *RemoteKeyResolver {
	r := &RemoteKeyResolver{
		fetcher:         fetcher,
		cache:           cache.NopCache{},
		timeout:         transport.DefaultFetchTimeout,
		refreshInterval: DefaultRefreshInterval,
		logger:          zap.NewNop(),
		observer:        NopObserver{},
		now:             time.Now,
		lastFetched:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RemoteKeyResolver) ResolveKey(ctx context.Context, keyID string) (protocol.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return protocol.PublicKey{}, fmt.Errorf("context error: %w", err)
	}

	key, ok, err := r.cache.Get(ctx, keyID)
	if err != nil {
		r.logger.Warn("key cache lookup failed", zap.String("key_id", keyID), zap.Error(err))
	} else if ok {
		r.observer.ObserveKeyLookup(LookupCacheHit)
		return key, nil
	}
	return r.load(ctx, keyID)
}

// RefreshKey refetches a cached key, e.g. after the peer rotated it
func (r *RemoteKeyResolver) RefreshKey(ctx context.Context, keyID string) (protocol.PublicKey, bool, error) {
	if _, ok, err := r.cache.Get(ctx, keyID); err != nil || !ok {
		return protocol.PublicKey{}, false, nil
	}
	if r.fetchedWithin(keyID, r.refreshInterval) {
		return protocol.PublicKey{}, false, nil
	}

	if err := r.Forget(ctx, keyID); err != nil {
		r.logger.Warn("key cache delete failed", zap.String("key_id", keyID), zap.Error(err))
	}
	r.observer.ObserveKeyLookup(LookupRefreshed)

	key, err := r.load(ctx, keyID)
	if err != nil {
		return protocol.PublicKey{}, false, err
	}
	return key, true, nil
}

// Forget drops keyID from the cache
func (r *RemoteKeyResolver) Forget(ctx context.Context, keyID string) error {
	r.group.Forget(keyID)
	return r.cache.Delete(ctx, keyID)
}

// load runs the shared fetch. It outlives any single caller; each caller
// still stops waiting when its own context ends.
func (r *RemoteKeyResolver) load(ctx context.Context, keyID string) (protocol.PublicKey, error) {
	ch := r.group.DoChan(keyID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.fetch(fetchCtx, keyID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return protocol.PublicKey{}, res.Err
		}
		return res.Val.(protocol.PublicKey), nil
	case <-ctx.Done():
		return protocol.PublicKey{}, fmt.Errorf("context error: %w", ctx.Err())
	}
}

func (r *RemoteKeyResolver) fetch(ctx context.Context, keyID string) (protocol.PublicKey, error) {
	r.recordFetch(keyID)

	actor, err := r.fetcher.FetchActor(ctx, keyID)
	if err != nil {
		r.observer.ObserveKeyLookup(LookupFetchFailed)
		return protocol.PublicKey{}, err
	}
	if err := checkKeyBinding(keyID, actor); err != nil {
		r.observer.ObserveKeyLookup(LookupRejected)
		r.logger.Warn("rejected key document",
			zap.String("key_id", keyID),
			zap.String("actor", actor.ID),
			zap.String("owner", actor.PublicKey.Owner),
		)
		return protocol.PublicKey{}, fmt.Errorf("%w: %w", transport.ErrFetch, err)
	}
	r.observer.ObserveKeyLookup(LookupFetched)

	if err := r.cache.Set(ctx, keyID, actor.PublicKey); err != nil {
		r.logger.Warn("key cache store failed", zap.String("key_id", keyID), zap.Error(err))
	}
	return actor.PublicKey, nil
}

func (r *RemoteKeyResolver) recordFetch(keyID string) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lastFetched) >= pruneThreshold {
		for id, at := range r.lastFetched {
			if now.Sub(at) >= r.refreshInterval {
				delete(r.lastFetched, id)
			}
		}
	}
	r.lastFetched[keyID] = now
}

func (r *RemoteKeyResolver) fetchedWithin(keyID string, d time.Duration) bool {
	if d <= 0 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.lastFetched[keyID]
	return ok && r.now().Sub(at) < d
}

// checkKeyBinding ties the fetched key to the key id: the key must be owned
// by the actor document itself, and that actor must live on the host named
// by the key id.
func checkKeyBinding(keyID string, actor *protocol.Actor) error {
	if actor.PublicKey.Owner != actor.ID {
		return fmt.Errorf("%w: owner %s is not actor %s", ErrKeyBinding, actor.PublicKey.Owner, actor.ID)
	}
	if stripFragment(actor.PublicKey.ID) != stripFragment(keyID) {
		return fmt.Errorf("%w: publicKey.id %s", ErrKeyBinding, actor.PublicKey.ID)
	}

	keyURL, err := url.Parse(keyID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyBinding, err)
	}
	actorURL, err := url.Parse(actor.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyBinding, err)
	}
	if !strings.EqualFold(keyURL.Host, actorURL.Host) {
		return fmt.Errorf("%w: actor %s is not hosted on %s", ErrKeyBinding, actor.ID, keyURL.Host)
	}
	return nil
}

func stripFragment(uri string) string {
	if i := strings.IndexByte(uri, '#'); i >= 0 {
		return uri[:i]
	}
	return uri
}
