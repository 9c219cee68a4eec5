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
// Package signer signs outgoing ActivityPub requests with draft-cavage
// HTTP Signatures.
//
// # Signing HTTP Requests
//
//	store := keystore.New("example.com")
//	alice, _ := store.GetOrCreate("alice")
//
//	req, _ := http.NewRequest("POST", "https://remote.example/users/bob/inbox", body)
//	req.Header.Set("Content-Type", "application/activity+json")
//
//	err := signer.NewDefaultRequestSigner().SignRequest(ctx, req, alice)
//
// This adds Date, Digest and Signature headers:
//
//	Date: Sun, 06 Nov 2021 08:49:37 GMT
//	Digest: SHA-256=...
//	Signature: keyId="https://example.com/users/alice#main-key",algorithm="rsa-sha256",
//	    headers="(request-target) host date digest content-type",signature="..."
//
// # Custom headers
//
//	opts := &signer.SigningOptions{
//	    Headers: []string{"(request-target)", "host", "date", "accept"},
//	}
//	err := s.SignRequestWithOptions(ctx, req, alice, opts)
//
// Every covered header must be present once Date and Digest are filled in.
package signer
