package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rap-project/rap-go/pkg/keystore"
	"github.com/rap-project/rap-go/pkg/protocol"
	"github.com/rap-project/rap-go/pkg/signature"
	"github.com/rap-project/rap-go/pkg/transport"
	"github.com/rap-project/rap-go/pkg/verifier"
)

// staticResolver resolves every key id to the same public key
type staticResolver struct {
	key protocol.PublicKey
}

func (r staticResolver) ResolveKey(ctx context.Context, keyID string) (protocol.PublicKey, error) {
	return r.key, nil
}

func newIdentity(t *testing.T) *keystore.Identity {
	t.Helper()
	store := keystore.New("example.com")
	alice, err := store.GetOrCreate("alice")
	require.NoError(t, err)
	return alice
}

func TestClient(t *testing.T) {
	alice := newIdentity(t)

	t.Run("Deliver signs and server verifies", func(t *testing.T) {
		// Setup
		v := verifier.NewDefaultHTTPVerifier(staticResolver{key: alice.PublicKey()})
		var gotBody string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, err := v.VerifyRequest(r.Context(), r, "bob")
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			assert.Equal(t, alice.KeyID(), auth.KeyID())
			assert.True(t, auth.Covers("digest"))
			assert.Equal(t, protocol.ActivityJSON, r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		c := New(alice, server.Client())

		// Execute
		err := c.Deliver(context.Background(), server.URL+"/users/bob/inbox", []byte(`{"type":"Follow"}`))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, `{"type":"Follow"}`, gotBody)
	})

	t.Run("Deliver reports rejection", func(t *testing.T) {
		// Setup
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Unauthorized: bad signature", http.StatusUnauthorized)
		}))
		defer server.Close()

		c := New(alice, server.Client())

		// Execute
		err := c.Deliver(context.Background(), server.URL+"/users/bob/inbox", []byte(`{}`))

		// Assert
		var de *DeliveryError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, http.StatusUnauthorized, de.StatusCode)
		assert.Equal(t, "Unauthorized: bad signature", de.Body)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("Get is signed", func(t *testing.T) {
		// Setup
		var sig string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sig = r.Header.Get(signature.HeaderName)
			assert.Equal(t, protocol.LDJSONActivityStreams, r.Header.Get("Accept"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := New(alice, server.Client())

		// Execute
		resp, err := c.Get(context.Background(), server.URL+"/users/bob")

		// Assert
		require.NoError(t, err)
		resp.Body.Close()
		params, err := signature.Parse(sig)
		require.NoError(t, err)
		assert.Equal(t, alice.KeyID(), params.KeyID)
		assert.Equal(t, []string{"(request-target)", "host", "date"}, params.Headers)
	})

	t.Run("nil key sends unsigned requests", func(t *testing.T) {
		// Setup
		var sig string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sig = r.Header.Get(signature.HeaderName)
		}))
		defer server.Close()

		c := New(nil, server.Client())

		// Execute
		resp, err := c.Post(context.Background(), server.URL+"/users/bob/inbox", []byte(`{}`))

		// Assert
		require.NoError(t, err)
		resp.Body.Close()
		assert.Empty(t, sig)
		assert.Nil(t, c.KeyPair())
	})

	t.Run("context cancelled", func(t *testing.T) {
		// Setup
		c := New(alice, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Execute
		_, err := c.Post(ctx, "http://127.0.0.1:1/users/bob/inbox", nil)

		// Assert
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("connection failure", func(t *testing.T) {
		// Setup
		c := New(alice, nil)

		// Execute
		_, err := c.Get(context.Background(), "http://127.0.0.1:1/users/bob")

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP request failed")
	})
}

func TestClientFetchActor(t *testing.T) {
	alice := newIdentity(t)

	t.Run("signed fetch", func(t *testing.T) {
		// Setup
		var sig string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sig = r.Header.Get(signature.HeaderName)
			w.Header().Set("Content-Type", protocol.ActivityJSON)
			actor := `{"id":"https://remote.example/users/bob","type":"Person",` +
				`"inbox":"https://remote.example/users/bob/inbox",` +
				`"publicKey":{"id":"https://remote.example/users/bob#main-key",` +
				`"owner":"https://remote.example/users/bob","publicKeyPem":` +
				jsonString(alice.PublicKey().PublicKeyPEM) + `}}`
			_, _ = w.Write([]byte(actor))
		}))
		defer server.Close()

		c := New(alice, server.Client())

		// Execute
		actor, err := c.FetchActor(context.Background(), server.URL+"/users/bob")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "https://remote.example/users/bob#main-key", actor.PublicKey.ID)
		assert.Contains(t, sig, `keyId="`+alice.KeyID()+`"`)
	})

	t.Run("not found", func(t *testing.T) {
		// Setup
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		c := New(nil, server.Client())

		// Execute
		_, err := c.FetchActor(context.Background(), server.URL+"/users/ghost")

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, transport.ErrFetch)
	})
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
