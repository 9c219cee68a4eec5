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
	"strings"

	"github.com/rap-project/rap-go/pkg/protocol"
)

// Authenticated is proof that a request carried a valid signature. It can
// only be produced by a successful verification.
type Authenticated struct {
	keyID   string
	owner   string
	actorID string
	headers []string
}

// KeyID returns the keyId the request was signed with
func (a *Authenticated) KeyID() string { return a.keyID }

// Owner returns the actor URI owning the key, as published in the key document
func (a *Authenticated) Owner() string { return a.owner }

// ActorID returns the local actor whose inbox received the request
func (a *Authenticated) ActorID() string { return a.actorID }

// CoveredHeaders returns the signed header names in signer order
func (a *Authenticated) CoveredHeaders() []string {
	return append([]string(nil), a.headers...)
}

// Covers reports whether name was covered by the signature, ignoring case
func (a *Authenticated) Covers(name string) bool {
	for _, h := range a.headers {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

func newAuthenticated(key protocol.PublicKey, keyID, actorID string, headers []string) *Authenticated {
	return &Authenticated{
		keyID:   keyID,
		owner:   key.Owner,
		actorID: actorID,
		headers: append([]string(nil), headers...),
	}
}
