package verifier

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rap-project/rap-go/pkg/keys"
	"github.com/rap-project/rap-go/pkg/protocol"
	"github.com/rap-project/rap-go/pkg/signature"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
	testKeyPEM  string
)

// sharedTestKey generates one key per test binary
func sharedTestKey(t testing.TB) (*rsa.PrivateKey, string) {
	t.Helper()
	testKeyOnce.Do(func() {
		var err error
		testKey, err = keys.GenerateKey()
		require.NoError(t, err)
		testKeyPEM, err = keys.EncodePublicKeyPEM(&testKey.PublicKey)
		require.NoError(t, err)
	})
	return testKey, testKeyPEM
}

// mockFetcher is a mock transport.ActorFetcher
type mockFetcher struct {
	calls   int32
	actors  map[string]*protocol.Actor
	err     error
	release chan struct{}
	entered chan struct{}
}

func (m *mockFetcher) FetchActor(ctx context.Context, uri string) (*protocol.Actor, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.entered != nil {
		select {
		case m.entered <- struct{}{}:
		default:
		}
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	actor, ok := m.actors[uri]
	if !ok {
		return nil, &mockNotFound{uri: uri}
	}
	return actor, nil
}

func (m *mockFetcher) Calls() int {
	return int(atomic.LoadInt32(&m.calls))
}

type mockNotFound struct{ uri string }

func (e *mockNotFound) Error() string { return "not found: " + e.uri }

// mockResolver is a mock KeyResolver
type mockResolver struct {
	key   protocol.PublicKey
	err   error
	calls int
}

func (m *mockResolver) ResolveKey(ctx context.Context, keyID string) (protocol.PublicKey, error) {
	m.calls++
	if m.err != nil {
		return protocol.PublicKey{}, m.err
	}
	return m.key, nil
}

// recordingObserver records Observer events
type recordingObserver struct {
	mu      sync.Mutex
	kinds   []ErrorKind
	lookups []string
}

func (o *recordingObserver) ObserveVerification(kind ErrorKind, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kinds = append(o.kinds, kind)
}

func (o *recordingObserver) ObserveKeyLookup(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lookups = append(o.lookups, outcome)
}

func remoteActor(uri, pem string) *protocol.Actor {
	return &protocol.Actor{
		ID:    uri,
		Inbox: uri + "/inbox",
		PublicKey: protocol.PublicKey{
			ID:           uri + "#main-key",
			Owner:        uri,
			PublicKeyPEM: pem,
		},
	}
}

// signedHeaders returns headers for a delivery to actorID signed with key
func signedHeaders(t testing.TB, key *rsa.PrivateKey, keyID, actorID string, covered []string) http.Header {
	t.Helper()

	headers := http.Header{}
	headers.Set("Host", "example.com")
	headers.Set("Date", "Sun, 06 Nov 2021 08:49:37 GMT")
	headers.Set("Content-Type", "application/activity+json")

	signingString, err := signature.SigningString(covered, headers, signature.InboxRequestTarget(actorID), signature.MissingHeaderLenient)
	require.NoError(t, err)

	sig, err := keys.Sign(key, []byte(signingString))
	require.NoError(t, err)

	headers.Set(signature.HeaderName, signature.Format(&signature.Params{
		KeyID:     keyID,
		Algorithm: "rsa-sha256",
		Headers:   covered,
		Signature: base64.StdEncoding.EncodeToString(sig),
	}))
	return headers
}

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
