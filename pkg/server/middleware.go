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
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rap-project/rap-go/pkg/signature"
	"github.com/rap-project/rap-go/pkg/verifier"
)

type contextKey string

const authenticatedKey contextKey = "rap_authenticated"

// ErrNotInbox is passed to the error handler when the request path does not
// name an actor inbox
var ErrNotInbox = errors.New("request path is not an actor inbox")

// ErrorHandler handles verification errors
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ActorIDFunc extracts the local actor whose inbox the request targets
type ActorIDFunc func(r *http.Request) (string, bool)

// SignatureAuthMiddleware verifies the Signature header of inbox deliveries
type SignatureAuthMiddleware struct {
	verifier     verifier.HTTPVerifier
	errorHandler ErrorHandler
	actorID      ActorIDFunc
	optional     bool
}

// NewSignatureAuthMiddleware creates middleware backed by v
func NewSignatureAuthMiddleware(v verifier.HTTPVerifier) *SignatureAuthMiddleware {
	return &SignatureAuthMiddleware{
		verifier:     v,
		errorHandler: DefaultErrorHandler,
		actorID:      InboxActorID,
	}
}

// SetErrorHandler sets a custom error handler
func (m *SignatureAuthMiddleware) SetErrorHandler(handler ErrorHandler) {
	m.errorHandler = handler
}

// SetActorIDFunc replaces the path based actor extraction used by Wrap
func (m *SignatureAuthMiddleware) SetActorIDFunc(f ActorIDFunc) {
	m.actorID = f
}

// SetOptional sets whether signature verification is optional.
// If true, requests without a Signature header pass through unauthenticated.
// A present but invalid signature is still rejected.
func (m *SignatureAuthMiddleware) SetOptional(optional bool) {
	m.optional = optional
}

// Wrap wraps an HTTP handler with signature authentication
func (m *SignatureAuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip verification for OPTIONS requests (CORS preflight)
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		actorID, ok := m.actorID(r)
		if !ok {
			m.errorHandler(w, r, ErrNotInbox)
			return
		}

		r, ok = m.authenticate(w, r, actorID)
		if !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Gin returns the middleware as a gin handler. The actor id is read from
// the named route parameter.
func (m *SignatureAuthMiddleware) Gin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		actorID := c.Param(param)
		if actorID == "" {
			m.errorHandler(c.Writer, c.Request, ErrNotInbox)
			c.Abort()
			return
		}

		r, ok := m.authenticate(c.Writer, c.Request, actorID)
		if !ok {
			c.Abort()
			return
		}
		c.Request = r
		if auth, found := GetAuthenticatedFromContext(r.Context()); found {
			c.Set(string(authenticatedKey), auth)
		}
		c.Next()
	}
}

// authenticate verifies r and returns it with the result in its context.
// On failure the error handler has already written the response.
func (m *SignatureAuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request, actorID string) (*http.Request, bool) {
	if m.optional && strings.TrimSpace(r.Header.Get(signature.HeaderName)) == "" {
		return r, true
	}

	ctx := r.Context()
	auth, err := m.verifier.VerifyRequest(ctx, r, actorID)
	if err != nil {
		m.errorHandler(w, r, err)
		return r, false
	}

	return r.WithContext(WithAuthenticated(ctx, auth)), true
}

// InboxActorID extracts {id} from a /users/{id}/inbox path
func InboxActorID(r *http.Request) (string, bool) {
	rest, ok := strings.CutPrefix(r.URL.Path, "/users/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/inbox")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// GetAuthenticated returns the verified signer stored by the gin adapter
func GetAuthenticated(c *gin.Context) (*verifier.Authenticated, bool) {
	v, ok := c.Get(string(authenticatedKey))
	if !ok {
		return nil, false
	}
	auth, ok := v.(*verifier.Authenticated)
	return auth, ok
}

// WithAuthenticated returns a copy of ctx carrying auth
func WithAuthenticated(ctx context.Context, auth *verifier.Authenticated) context.Context {
	return context.WithValue(ctx, authenticatedKey, auth)
}

// GetAuthenticatedFromContext extracts the verified signer from request context
func GetAuthenticatedFromContext(ctx context.Context) (*verifier.Authenticated, bool) {
	auth, ok := ctx.Value(authenticatedKey).(*verifier.Authenticated)
	return auth, ok && auth != nil
}

// DefaultErrorHandler writes "<Status>: <reason>" as plain text. Rejections
// are mapped by kind; other errors are 401 (ErrNotInbox is 404).
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusUnauthorized
	reason := err.Error()

	var authErr *verifier.AuthError
	switch {
	case errors.As(err, &authErr):
		status = authErr.Kind.StatusCode()
		reason = authErr.Reason
	case errors.Is(err, ErrNotInbox):
		status = http.StatusNotFound
	}
	http.Error(w, fmt.Sprintf("%s: %s", http.StatusText(status), reason), status)
}
