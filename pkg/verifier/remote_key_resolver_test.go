package verifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rap-project/rap-go/pkg/cache"
	"github.com/rap-project/rap-go/pkg/protocol"
	"github.com/rap-project/rap-go/pkg/transport"
)

const bobURI = "https://remote.example/users/bob"

func TestRemoteKeyResolver_ResolveKey(t *testing.T) {
	// Setup
	fetcher := &mockFetcher{actors: map[string]*protocol.Actor{
		bobURI + "#main-key": remoteActor(bobURI, "pem"),
	}}
	resolver := NewRemoteKeyResolver(fetcher)

	// Execute
	key, err := resolver.ResolveKey(context.Background(), bobURI+"#main-key")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, bobURI+"#main-key", key.ID)
	assert.Equal(t, bobURI, key.Owner)
	assert.Equal(t, "pem", key.PublicKeyPEM)
	assert.Equal(t, 1, fetcher.Calls())
}

func TestRemoteKeyResolver_NoCacheFetchesEveryTime(t *testing.T) {
	fetcher := &mockFetcher{actors: map[string]*protocol.Actor{bobURI: remoteActor(bobURI, "pem")}}
	resolver := NewRemoteKeyResolver(fetcher)

	for i := 0; i < 3; i++ {
		_, err := resolver.ResolveKey(context.Background(), bobURI)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, fetcher.Calls())
}

func TestRemoteKeyResolver_Cache(t *testing.T) {
	// Setup
	ctx := context.Background()
	memory, err := cache.NewMemoryCache(ctx, time.Minute)
	require.NoError(t, err)
	defer memory.Close()

	fetcher := &mockFetcher{actors: map[string]*protocol.Actor{bobURI: remoteActor(bobURI, "pem")}}
	obs := &recordingObserver{}
	resolver := NewRemoteKeyResolver(fetcher, WithCache(memory), WithResolverObserver(obs))

	// Execute
	first, err := resolver.ResolveKey(ctx, bobURI)
	require.NoError(t, err)
	second, err := resolver.ResolveKey(ctx, bobURI)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.Calls())
	assert.Equal(t, []string{LookupFetched, LookupCacheHit}, obs.lookups)

	// Forget forces a refetch.
	require.NoError(t, resolver.Forget(ctx, bobURI))
	_, err = resolver.ResolveKey(ctx, bobURI)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.Calls())
}

func TestRemoteKeyResolver_FetchError(t *testing.T) {
	// Setup
	cause := errors.New("connection refused")
	fetcher := &mockFetcher{err: cause}
	obs := &recordingObserver{}
	resolver := NewRemoteKeyResolver(fetcher, WithResolverObserver(obs))

	// Execute
	_, err := resolver.ResolveKey(context.Background(), bobURI)

	// Assert
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{LookupFetchFailed}, obs.lookups)
}

func TestRemoteKeyResolver_FailuresAreNotCached(t *testing.T) {
	ctx := context.Background()
	memory, err := cache.NewMemoryCache(ctx, time.Minute)
	require.NoError(t, err)
	defer memory.Close()

	fetcher := &mockFetcher{err: errors.New("timeout")}
	resolver := NewRemoteKeyResolver(fetcher, WithCache(memory))

	_, err = resolver.ResolveKey(ctx, bobURI)
	require.Error(t, err)

	fetcher.err = nil
	fetcher.actors = map[string]*protocol.Actor{bobURI: remoteActor(bobURI, "pem")}
	_, err = resolver.ResolveKey(ctx, bobURI)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.Calls())
}

func TestRemoteKeyResolver_CoalescesConcurrentFetches(t *testing.T) {
	// Setup
	const n = 16
	fetcher := &mockFetcher{
		actors:  map[string]*protocol.Actor{bobURI: remoteActor(bobURI, "pem")},
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	resolver := NewRemoteKeyResolver(fetcher)

	// Execute
	var wg sync.WaitGroup
	results := make([]protocol.PublicKey, n)
	errs := make([]error, n)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = resolver.ResolveKey(context.Background(), bobURI)
	}()
	<-fetcher.entered

	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = resolver.ResolveKey(context.Background(), bobURI)
		}(i)
	}
	// Give the followers time to join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	// Assert
	assert.Equal(t, 1, fetcher.Calls())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
}

func TestRemoteKeyResolver_CallerCancellation(t *testing.T) {
	// Setup
	fetcher := &mockFetcher{
		actors:  map[string]*protocol.Actor{bobURI: remoteActor(bobURI, "pem")},
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	resolver := NewRemoteKeyResolver(fetcher)

	impatient, cancel := context.WithCancel(context.Background())
	impatientErr := make(chan error, 1)
	go func() {
		_, err := resolver.ResolveKey(impatient, bobURI)
		impatientErr <- err
	}()
	<-fetcher.entered

	patientResult := make(chan error, 1)
	go func() {
		_, err := resolver.ResolveKey(context.Background(), bobURI)
		patientResult <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// Execute
	cancel()
	err := <-impatientErr
	close(fetcher.release)

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, <-patientResult, "the shared fetch must survive one caller leaving")
	assert.Equal(t, 1, fetcher.Calls())
}

func TestRemoteKeyResolver_FetchTimeout(t *testing.T) {
	fetcher := &mockFetcher{release: make(chan struct{})}
	defer close(fetcher.release)
	resolver := NewRemoteKeyResolver(fetcher, WithFetchTimeout(30*time.Millisecond))

	_, err := resolver.ResolveKey(context.Background(), bobURI)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRemoteKeyResolver_CacheErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	fetcher := &mockFetcher{actors: map[string]*protocol.Actor{bobURI: remoteActor(bobURI, "pem")}}
	resolver := NewRemoteKeyResolver(fetcher,
		WithCache(failingCache{}),
		WithResolverLogger(zap.New(core)),
	)

	_, err := resolver.ResolveKey(context.Background(), bobURI)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("key cache lookup failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("key cache store failed").Len())
}

func TestRemoteKeyResolver_WithHTTPFetcher(t *testing.T) {
	// The resolver only relies on the ActorFetcher contract.
	var _ transport.ActorFetcher = transport.NewHTTPActorFetcher(nil)
	var _ KeyResolver = NewRemoteKeyResolver(transport.NewHTTPActorFetcher(nil))
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (protocol.PublicKey, bool, error) {
	return protocol.PublicKey{}, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, protocol.PublicKey) error {
	return errors.New("cache down")
}

func (failingCache) Delete(context.Context, string) error { return nil }

func (failingCache) Close() error { return nil }

func TestRemoteKeyResolver_RejectsUnboundKeyDocuments(t *testing.T) {
	const (
		malloryURI = "https://evil.example/users/mallory"
		victimURI  = "https://victim.social/users/admin"
	)

	tests := []struct {
		name  string
		actor *protocol.Actor
	}{
		{
			name: "Owner is another actor",
			actor: &protocol.Actor{
				ID:    malloryURI,
				Inbox: malloryURI + "/inbox",
				PublicKey: protocol.PublicKey{
					ID:           malloryURI + "#main-key",
					Owner:        victimURI,
					PublicKeyPEM: "pem",
				},
			},
		},
		{
			name: "Actor on another host",
			actor: &protocol.Actor{
				ID:    victimURI,
				Inbox: victimURI + "/inbox",
				PublicKey: protocol.PublicKey{
					ID:           malloryURI + "#main-key",
					Owner:        victimURI,
					PublicKeyPEM: "pem",
				},
			},
		},
		{
			name: "Key id names another key",
			actor: &protocol.Actor{
				ID:    malloryURI,
				Inbox: malloryURI + "/inbox",
				PublicKey: protocol.PublicKey{
					ID:           "https://evil.example/users/other#main-key",
					Owner:        malloryURI,
					PublicKeyPEM: "pem",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			ctx := context.Background()
			memory, err := cache.NewMemoryCache(ctx, time.Minute)
			require.NoError(t, err)
			defer memory.Close()

			fetcher := &mockFetcher{actors: map[string]*protocol.Actor{malloryURI + "#main-key": tt.actor}}
			obs := &recordingObserver{}
			resolver := NewRemoteKeyResolver(fetcher, WithCache(memory), WithResolverObserver(obs))

			// Execute
			_, err = resolver.ResolveKey(ctx, malloryURI+"#main-key")

			// Assert
			assert.ErrorIs(t, err, transport.ErrFetch)
			assert.ErrorIs(t, err, ErrKeyBinding)
			assert.Equal(t, []string{LookupRejected}, obs.lookups)

			_, ok, err := memory.Get(ctx, malloryURI+"#main-key")
			require.NoError(t, err)
			assert.False(t, ok, "rejected documents must not be cached")
		})
	}
}

func TestRemoteKeyResolver_AcceptsBareKeyID(t *testing.T) {
	fetcher := &mockFetcher{actors: map[string]*protocol.Actor{bobURI: remoteActor(bobURI, "pem")}}
	resolver := NewRemoteKeyResolver(fetcher)

	key, err := resolver.ResolveKey(context.Background(), bobURI)

	require.NoError(t, err)
	assert.Equal(t, bobURI+"#main-key", key.ID)
}

func TestRemoteKeyResolver_RefreshKey(t *testing.T) {
	// Setup
	ctx := context.Background()
	memory, err := cache.NewMemoryCache(ctx, 10*time.Minute)
	require.NoError(t, err)
	defer memory.Close()

	clock := newFakeClock()
	fetcher := &mockFetcher{actors: map[string]*protocol.Actor{bobURI: remoteActor(bobURI, "old")}}
	obs := &recordingObserver{}
	resolver := NewRemoteKeyResolver(fetcher, WithCache(memory), WithResolverObserver(obs))
	resolver.now = clock.Now

	t.Run("Not cached", func(t *testing.T) {
		_, ok, err := resolver.RefreshKey(ctx, bobURI)

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, fetcher.Calls())
	})

	_, err = resolver.ResolveKey(ctx, bobURI)
	require.NoError(t, err)
	fetcher.actors = map[string]*protocol.Actor{bobURI: remoteActor(bobURI, "new")}

	t.Run("Fetched too recently", func(t *testing.T) {
		_, ok, err := resolver.RefreshKey(ctx, bobURI)

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, fetcher.Calls())
	})

	t.Run("Refetches after the interval", func(t *testing.T) {
		// Execute
		clock.Advance(DefaultRefreshInterval)
		key, ok, err := resolver.RefreshKey(ctx, bobURI)

		// Assert
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "new", key.PublicKeyPEM)
		assert.Equal(t, 2, fetcher.Calls())

		cached, err := resolver.ResolveKey(ctx, bobURI)
		require.NoError(t, err)
		assert.Equal(t, "new", cached.PublicKeyPEM)
		assert.Equal(t, 2, fetcher.Calls())
		assert.Equal(t, []string{LookupFetched, LookupRefreshed, LookupFetched, LookupCacheHit}, obs.lookups)
	})
}

func TestRemoteKeyResolver_RefreshIntervalZero(t *testing.T) {
	ctx := context.Background()
	memory, err := cache.NewMemoryCache(ctx, 10*time.Minute)
	require.NoError(t, err)
	defer memory.Close()

	fetcher := &mockFetcher{actors: map[string]*protocol.Actor{bobURI: remoteActor(bobURI, "pem")}}
	resolver := NewRemoteKeyResolver(fetcher, WithCache(memory), WithRefreshInterval(0))

	_, err = resolver.ResolveKey(ctx, bobURI)
	require.NoError(t, err)
	_, ok, err := resolver.RefreshKey(ctx, bobURI)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, fetcher.Calls())
}
