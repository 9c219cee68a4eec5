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
// Package client provides an HTTP client that signs every request as a
// local actor.
//
// # Basic Usage
//
//	store := keystore.New("example.com")
//	alice, _ := store.GetOrCreate("alice")
//	c := client.New(alice, nil)
//
//	// Deliver an activity (signed, with Digest)
//	err := c.Deliver(ctx, "https://remote.example/users/bob/inbox", activity)
//
//	// Fetch a remote actor (signed GET, for servers requiring authorized fetch)
//	actor, err := c.FetchActor(ctx, "https://remote.example/users/bob")
//
// A client created with a nil key sends unsigned requests:
//
//	actor, err := client.New(nil, nil).FetchActor(ctx, uri)
//
// # Error Handling
//
// Deliver returns *DeliveryError when the inbox answers with a non-2xx
// status. FetchActor errors wrap transport.ErrFetch.
package client
