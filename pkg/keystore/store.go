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
// Package keystore keeps the RSA signing identities of locally hosted actors.
package keystore

import (
	"crypto/rsa"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rap-project/rap-go/pkg/keys"
	"github.com/rap-project/rap-go/pkg/protocol"
)

// ActorID is the path segment naming a local actor, as in /users/{ActorID}
type ActorID string

// Identity is the signing identity of one local actor
type Identity struct {
	id        ActorID
	uri       string
	key       *rsa.PrivateKey
	publicKey protocol.PublicKey
}

// ID returns the actor id
func (i *Identity) ID() ActorID { return i.id }

// URI returns the actor URI
func (i *Identity) URI() string { return i.uri }

// KeyID returns "{uri}#main-key"
func (i *Identity) KeyID() string { return i.publicKey.ID }

// PublicKey returns the public-key document of this identity.
func (i *Identity) PublicKey() protocol.PublicKey { return i.publicKey }

// PrivateKey exposes the private key to in-process signers.
func (i *Identity) PrivateKey() *rsa.PrivateKey { return i.key }

// Sign signs data with RSASSA-PKCS1-v1_5 over SHA-256.
func (i *Identity) Sign(data []byte) ([]byte, error) {
	return keys.Sign(i.key, data)
}

// entry is published in the map before its key exists; ready is closed
// once identity or err is set
type entry struct {
	ready    chan struct{}
	identity *Identity
	err      error
}

// Store maps actor ids to identities. Identities are created on first use
// and kept for the lifetime of the process.
type Store struct {
	domain   string
	generate keys.Generator
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[ActorID]*entry
}

// Option configures a Store
type Option func(*Store)

// WithKeyGenerator replaces the RSA key generator
func WithKeyGenerator(g keys.Generator) Option {
	return func(s *Store) {
		s.generate = g
	}
}

// WithLogger sets the logger used to report new identities
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty store for actors hosted on domain
func New(domain string, opts ...Option) *Store {
	s := &Store{
		domain:   domain,
		generate: keys.GenerateKey,
		logger:   zap.NewNop(),
		entries:  make(map[ActorID]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Domain returns the host name the store mints actor URIs for
func (s *Store) Domain() string { return s.domain }

// GetOrCreate returns the identity of id, generating a keypair the first
// time id is seen. Concurrent callers for the same id share one generation
// and receive the same *Identity. A failed generation is not cached.
func (s *Store) GetOrCreate(id ActorID) (*Identity, error) {
	if id == "" {
		return nil, fmt.Errorf("actor id is required")
	}

	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		s.entries[id] = e
	}
	s.mu.Unlock()

	if ok {
		<-e.ready
		return e.identity, e.err
	}

	// Waiters are released even if the generator panics.
	defer func() {
		if e.identity == nil && e.err == nil {
			e.err = fmt.Errorf("failed to create identity for %s: key generator panicked", id)
		}
		if e.err != nil {
			s.mu.Lock()
			delete(s.entries, id)
			s.mu.Unlock()
		}
		close(e.ready)
	}()

	e.identity, e.err = s.create(id)
	return e.identity, e.err
}

// Lookup returns the identity of id without creating one.
func (s *Store) Lookup(id ActorID) (*Identity, bool) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	<-e.ready
	if e.err != nil {
		return nil, false
	}
	return e.identity, true
}

// Len returns the number of identities held, counting ones being created
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) create(id ActorID) (*Identity, error) {
	key, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("failed to create identity for %s: %w", id, err)
	}

	pemText, err := keys.EncodePublicKeyPEM(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity for %s: %w", id, err)
	}

	uri := protocol.ActorURI(s.domain, string(id))
	identity := &Identity{
		id:  id,
		uri: uri,
		key: key,
		publicKey: protocol.PublicKey{
			ID:           protocol.KeyID(uri),
			Owner:        uri,
			PublicKeyPEM: pemText,
		},
	}

	s.logger.Info("created actor identity",
		zap.String("actor", string(id)),
		zap.String("key_id", identity.KeyID()),
	)
	return identity, nil
}
