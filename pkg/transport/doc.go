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
// Package transport performs the outbound HTTP calls needed to
// authenticate deliveries.
//
// HTTPActorFetcher retrieves the actor document named by a signature's
// keyId:
//
//	fetcher := transport.NewHTTPActorFetcher(nil, transport.WithTimeout(5*time.Second))
//	actor, err := fetcher.FetchActor(ctx, "https://remote.example/users/bob#main-key")
//
// The request carries
//
//	Accept: application/ld+json; profile="https://www.w3.org/ns/activitystreams"
//
// Network errors, non-2xx responses, oversized bodies and documents
// missing id, inbox or publicKey all wrap ErrFetch. A non-2xx response
// additionally wraps *StatusError.
package transport
