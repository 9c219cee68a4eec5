package verifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rap-project/rap-go/pkg/keystore"
	"github.com/rap-project/rap-go/pkg/protocol"
)

func TestLocalKeyResolver_ResolveKey(t *testing.T) {
	// Setup
	ctx := context.Background()
	store := keystore.New("example.com")
	identity, err := store.GetOrCreate("alice")
	require.NoError(t, err)
	resolver := NewLocalKeyResolver(store)

	// Execute
	withFragment, err := resolver.ResolveKey(ctx, "https://example.com/users/alice#main-key")
	require.NoError(t, err)
	bare, err := resolver.ResolveKey(ctx, "https://example.com/users/alice")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, identity.PublicKey(), withFragment)
	assert.Equal(t, identity.PublicKey(), bare)
}

func TestLocalKeyResolver_UnknownActor(t *testing.T) {
	// Setup
	store := keystore.New("example.com")
	resolver := NewLocalKeyResolver(store)

	// Execute
	_, err := resolver.ResolveKey(context.Background(), "https://example.com/users/ghost#main-key")

	// Assert
	assert.ErrorIs(t, err, ErrUnknownActor)
	assert.Equal(t, 0, store.Len(), "resolution must not create identities")
}

func TestLocalKeyResolver_NotLocal(t *testing.T) {
	resolver := NewLocalKeyResolver(keystore.New("example.com"))

	_, err := resolver.ResolveKey(context.Background(), "https://remote.example/users/bob#main-key")
	assert.ErrorIs(t, err, ErrNotLocal)
	assert.False(t, resolver.IsLocal("https://remote.example/users/bob#main-key"))
	assert.True(t, resolver.IsLocal("https://example.com/users/bob#main-key"))
}

func TestLocalKeyResolver_ContextCancellation(t *testing.T) {
	resolver := NewLocalKeyResolver(keystore.New("example.com"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.ResolveKey(ctx, "https://example.com/users/alice")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultKeyResolver_Dispatch(t *testing.T) {
	// Setup
	ctx := context.Background()
	store := keystore.New("example.com")
	identity, err := store.GetOrCreate("alice")
	require.NoError(t, err)

	remoteKey := protocol.PublicKey{ID: "https://remote.example/users/bob#main-key", Owner: "https://remote.example/users/bob", PublicKeyPEM: "pem"}
	remote := &mockResolver{key: remoteKey}
	resolver := NewDefaultKeyResolver(NewLocalKeyResolver(store), remote)

	// Execute & Assert
	got, err := resolver.ResolveKey(ctx, identity.KeyID())
	require.NoError(t, err)
	assert.Equal(t, identity.PublicKey(), got)
	assert.Equal(t, 0, remote.calls)

	got, err = resolver.ResolveKey(ctx, remoteKey.ID)
	require.NoError(t, err)
	assert.Equal(t, remoteKey, got)
	assert.Equal(t, 1, remote.calls)

	// An unknown local actor is not sent to the network.
	_, err = resolver.ResolveKey(ctx, "https://example.com/users/ghost#main-key")
	assert.ErrorIs(t, err, ErrUnknownActor)
	assert.Equal(t, 1, remote.calls)
}

func TestDefaultKeyResolver_RemoteOnly(t *testing.T) {
	remote := &mockResolver{err: errors.New("offline")}
	resolver := NewDefaultKeyResolver(nil, remote)

	_, err := resolver.ResolveKey(context.Background(), "https://example.com/users/alice")
	assert.EqualError(t, err, "offline")

	_, err = NewDefaultKeyResolver(nil, nil).ResolveKey(context.Background(), "https://remote.example/users/bob")
	assert.Error(t, err)
}
