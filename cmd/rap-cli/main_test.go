package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rap-project/rap-go/pkg/keys"
	"github.com/rap-project/rap-go/pkg/protocol"
	"github.com/rap-project/rap-go/pkg/signature"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

// actorServer serves one actor document and records the Signature header
func actorServer(t *testing.T, pubPEM string, sig *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*sig = r.Header.Get(signature.HeaderName)
		actor := protocol.NewActorBuilder("remote.example", "bob").WithPublicKeyPEM(pubPEM).Build()
		w.Header().Set("Content-Type", protocol.ActivityJSON)
		require.NoError(t, json.NewEncoder(w).Encode(actor))
	}))
}

func TestKeygen(t *testing.T) {
	t.Run("public only", func(t *testing.T) {
		out, err := run(t, "keygen")

		require.NoError(t, err)
		_, err = keys.ParsePublicKeyPEM(out)
		assert.NoError(t, err)
		assert.NotContains(t, out, "PRIVATE KEY")
	})

	t.Run("with private key", func(t *testing.T) {
		out, err := run(t, "keygen", "--private")

		require.NoError(t, err)
		priv, err := keys.ParsePrivateKeyPEM(out)
		require.NoError(t, err)
		pubStart := strings.Index(out, "-----BEGIN PUBLIC KEY-----")
		require.Greater(t, pubStart, 0)
		pub, err := keys.ParsePublicKeyPEM(out[pubStart:])
		require.NoError(t, err)
		assert.True(t, priv.PublicKey.Equal(pub))
	})
}

func TestActor(t *testing.T) {
	priv, err := keys.GenerateKey()
	require.NoError(t, err)
	pubPEM, err := keys.EncodePublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)

	t.Run("unsigned fetch", func(t *testing.T) {
		// Setup
		var sig string
		srv := actorServer(t, pubPEM, &sig)
		defer srv.Close()

		// Execute
		out, err := run(t, "actor", "--id", srv.URL+"/users/bob")

		// Assert
		require.NoError(t, err)
		var actor protocol.Actor
		require.NoError(t, json.Unmarshal([]byte(out), &actor))
		assert.Equal(t, "https://remote.example/users/bob#main-key", actor.PublicKey.ID)
		assert.Empty(t, sig)
	})

	t.Run("signed fetch", func(t *testing.T) {
		// Setup
		var sig string
		srv := actorServer(t, pubPEM, &sig)
		defer srv.Close()
		privPEM, err := keys.EncodePrivateKeyPEM(priv)
		require.NoError(t, err)
		keyFile := filepath.Join(t.TempDir(), "key.pem")
		require.NoError(t, os.WriteFile(keyFile, []byte(privPEM), 0o600))

		// Execute
		_, err = run(t, "actor", "--id", srv.URL+"/users/bob",
			"--key", keyFile, "--key-id", "https://local.example/users/alice#main-key")

		// Assert
		require.NoError(t, err)
		params, err := signature.Parse(sig)
		require.NoError(t, err)
		assert.Equal(t, "https://local.example/users/alice#main-key", params.KeyID)
	})

	t.Run("id is required", func(t *testing.T) {
		_, err := run(t, "actor")
		assert.Error(t, err)
	})

	t.Run("key needs key id", func(t *testing.T) {
		_, err := run(t, "actor", "--id", "http://127.0.0.1:1/users/bob", "--key", "key.pem")
		assert.Error(t, err)
	})

	t.Run("fetch failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := run(t, "actor", "--id", srv.URL+"/users/ghost")

		assert.ErrorContains(t, err, "404")
	})
}
