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
// Package verifier authenticates signed ActivityPub deliveries.
//
// # Pipeline
//
// DefaultHTTPVerifier checks one inbound request in fixed order:
//
//  1. the Signature header must be present (NoSignatureHeader)
//  2. it must parse (MalformedSignatureHeader)
//  3. the keyId must resolve to a public key (KeyResolutionFailed)
//  4. the signing string is rebuilt from the covered headers
//  5. the signature must be valid base64 (MalformedSignature)
//  6. the signature must verify (InvalidPublicKey, VerificationFailed)
//
// The first failure ends the check with an *AuthError carrying its kind:
//
//	store := keystore.New("example.com")
//	resolver := verifier.NewDefaultKeyResolver(
//	    verifier.NewLocalKeyResolver(store),
//	    verifier.NewRemoteKeyResolver(transport.NewHTTPActorFetcher(nil)),
//	)
//	v := verifier.NewDefaultHTTPVerifier(resolver)
//
//	auth, err := v.VerifyRequest(ctx, req, "alice")
//	if err != nil {
//	    http.Error(w, err.Error(), verifier.KindOf(err).StatusCode())
//	    return
//	}
//	log.Printf("delivery from %s", auth.Owner())
//
// # Key resolution
//
// Key ids of the form https://{domain}/users/{id}[#main-key] are answered
// from the local key store without creating identities. All others are
// fetched by RemoteKeyResolver, which caches results by key id and
// coalesces concurrent fetches of the same key id.
//
// # Signature scheme
//
// Signatures are RSASSA-PKCS1-v1_5 over SHA-256, the "rsa-sha256" algorithm
// used across the fediverse. The algorithm parameter of the header is not
// consulted.
package verifier
