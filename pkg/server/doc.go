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
// Package server exposes the HTTP surface of a rap server: middleware that
// authenticates signed inbox deliveries and a gin router serving actors,
// webfinger and inboxes.
//
// # Basic Usage
//
//	store := keystore.New("example.com")
//	resolver := verifier.NewDefaultKeyResolver(
//	    verifier.NewLocalKeyResolver(store),
//	    verifier.NewRemoteKeyResolver(transport.NewHTTPActorFetcher(nil)),
//	)
//	v := verifier.NewDefaultHTTPVerifier(resolver)
//
//	router, err := server.NewRouter(server.Deps{Store: store, Verifier: v})
//	if err != nil {
//	    return err
//	}
//	http.ListenAndServe(":3000", router)
//
// # Middleware Only
//
// SignatureAuthMiddleware also wraps a plain http.Handler. The actor is taken
// from a /users/{id}/inbox path:
//
//	middleware := server.NewSignatureAuthMiddleware(v)
//	http.Handle("/users/", middleware.Wrap(handler))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    auth, ok := server.GetAuthenticatedFromContext(r.Context())
//	    if !ok {
//	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
//	        return
//	    }
//	    log.Printf("delivery signed by %s", auth.KeyID())
//	}
//
// # Optional Verification
//
//	// Allow unsigned requests to pass through
//	middleware.SetOptional(true)
//
// # Error Responses
//
// The default error handler writes a plain text body of the form
// "Unauthorized: <reason>". Malformed Signature headers and signatures that
// are not base64 are answered with 400 Bad Request; every other rejection
// with 401 Unauthorized. Use SetErrorHandler to change this.
//
// # Routes
//
//	GET  /                       plain text banner
//	GET  /.well-known/webfinger  JRD for acct:user@domain
//	GET  /.well-known/host-meta  XRD pointing at webfinger
//	GET  /users/:id              actor document, created on first request
//	POST /users/:id/inbox        signed delivery, 202 Accepted
//	GET  /metrics                when Deps.Metrics is set
package server
