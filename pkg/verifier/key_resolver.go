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

	"github.com/rap-project/rap-go/pkg/keystore"
	"github.com/rap-project/rap-go/pkg/protocol"
)

var (
	// ErrNotLocal is returned by LocalKeyResolver for key ids of other servers
	ErrNotLocal = errors.New("key id does not name a local actor")

	// ErrUnknownActor is returned when a local key id names an actor that
	// has no identity yet
	ErrUnknownActor = errors.New("unknown local actor")
)

// KeyResolver maps a key id to the public-key document it names
type KeyResolver interface {
	ResolveKey(ctx context.Context, keyID string) (protocol.PublicKey, error)
}

// LocalKeys is the part of keystore.Store the local resolver reads
type LocalKeys interface {
	Domain() string
	Lookup(id keystore.ActorID) (*keystore.Identity, bool)
}

// LocalKeyResolver resolves key ids of actors hosted by this server
type LocalKeyResolver struct {
	store LocalKeys
}

// NewLocalKeyResolver creates a resolver reading from store
func NewLocalKeyResolver(store LocalKeys) *LocalKeyResolver {
	return &LocalKeyResolver{store: store}
}

// IsLocal reports whether keyID points at this server
func (r *LocalKeyResolver) IsLocal(keyID string) bool {
	_, ok := protocol.LocalActorID(r.store.Domain(), keyID)
	return ok
}

// ResolveKey returns the stored public key. Identities are never created here.
func (r *LocalKeyResolver) ResolveKey(ctx context.Context, keyID string) (protocol.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return protocol.PublicKey{}, fmt.Errorf("context error: %w", err)
	}

	id, ok := protocol.LocalActorID(r.store.Domain(), keyID)
	if !ok {
		return protocol.PublicKey{}, fmt.Errorf("%w: %s", ErrNotLocal, keyID)
	}
	identity, ok := r.store.Lookup(keystore.ActorID(id))
	if !ok {
		return protocol.PublicKey{}, fmt.Errorf("%w: %s", ErrUnknownActor, id)
	}
	return identity.PublicKey(), nil
}

// DefaultKeyResolver sends local key ids to the key store and everything
// else to the network
type DefaultKeyResolver struct {
	local  *LocalKeyResolver
	remote KeyResolver
}

// NewDefaultKeyResolver creates a dispatching resolver. A nil local resolver
// sends every key id to remote.
func NewDefaultKeyResolver(local *LocalKeyResolver, remote KeyResolver) *DefaultKeyResolver {
	return &DefaultKeyResolver{local: local, remote: remote}
}

func (r *DefaultKeyResolver) ResolveKey(ctx context.Context, keyID string) (protocol.PublicKey, error) {
	if r.local != nil && r.local.IsLocal(keyID) {
		return r.local.ResolveKey(ctx, keyID)
	}
	if r.remote == nil {
		return protocol.PublicKey{}, fmt.Errorf("remote key resolution not configured for %s", keyID)
	}
	return r.remote.ResolveKey(ctx, keyID)
}

// RefreshKey forwards to the remote resolver. Local keys are never cached.
func (r *DefaultKeyResolver) RefreshKey(ctx context.Context, keyID string) (protocol.PublicKey, bool, error) {
	if r.local != nil && r.local.IsLocal(keyID) {
		return protocol.PublicKey{}, false, nil
	}
	refresher, ok := r.remote.(KeyRefresher)
	if !ok {
		return protocol.PublicKey{}, false, nil
	}
	return refresher.RefreshKey(ctx, keyID)
}
