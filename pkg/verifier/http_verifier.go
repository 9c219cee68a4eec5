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
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rap-project/rap-go/pkg/keys"
	"github.com/rap-project/rap-go/pkg/protocol"
	"github.com/rap-project/rap-go/pkg/signature"
)

// HTTPVerifier authenticates signed deliveries to a local inbox
type HTTPVerifier interface {
	// Verify checks the Signature header in headers for a POST to the inbox
	// of actorID. Every failure is an *AuthError.
	Verify(ctx context.Context, headers http.Header, actorID string) (*Authenticated, error)

	// VerifyRequest is Verify for an *http.Request
	VerifyRequest(ctx context.Context, req *http.Request, actorID string) (*Authenticated, error)
}

// DefaultHTTPVerifier runs parse, resolve, rebuild, decode and verify in
// order and stops at the first failure
type DefaultHTTPVerifier struct {
	resolver          KeyResolver
	signatureVerifier SignatureVerifier
	policy            signature.MissingHeaderPolicy
	logger            *zap.Logger
	observer          Observer
}

// Option configures a DefaultHTTPVerifier
type Option func(*DefaultHTTPVerifier)

// WithSignatureVerifier replaces the RSA verifier
func WithSignatureVerifier(sv SignatureVerifier) Option {
	return func(v *DefaultHTTPVerifier) {
		if sv != nil {
			v.signatureVerifier = sv
		}
	}
}

// WithMissingHeaderPolicy selects how absent covered headers are treated
func WithMissingHeaderPolicy(p signature.MissingHeaderPolicy) Option {
	return func(v *DefaultHTTPVerifier) {
		v.policy = p
	}
}

// WithLogger sets the logger that records rejections
func WithLogger(logger *zap.Logger) Option {
	return func(v *DefaultHTTPVerifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithObserver reports every verification outcome
func WithObserver(o Observer) Option {
	return func(v *DefaultHTTPVerifier) {
		if o != nil {
			v.observer = o
		}
	}
}

// NewDefaultHTTPVerifier creates a verifier resolving keys through resolver
func NewDefaultHTTPVerifier(resolver KeyResolver, opts ...Option) *DefaultHTTPVerifier {
	v := &DefaultHTTPVerifier{
		resolver:          resolver,
		signatureVerifier: NewRSAVerifier(),
		policy:            signature.MissingHeaderLenient,
		logger:            zap.NewNop(),
		observer:          NopObserver{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyRequest verifies req. net/http moves the Host header out of
// req.Header, so it is put back before the signing string is rebuilt.
func (v *DefaultHTTPVerifier) VerifyRequest(ctx context.Context, req *http.Request, actorID string) (*Authenticated, error) {
	headers := req.Header
	if req.Host != "" && headers.Get("Host") == "" {
		headers = headers.Clone()
		if headers == nil {
			headers = http.Header{}
		}
		headers.Set("Host", req.Host)
	}
	return v.Verify(ctx, headers, actorID)
}

func (v *DefaultHTTPVerifier) Verify(ctx context.Context, headers http.Header, actorID string) (*Authenticated, error) {
	start := time.Now()
	auth, params, err := v.verify(ctx, headers, actorID)

	kind := KindOf(err)
	v.observer.ObserveVerification(kind, time.Since(start))
	if err != nil {
		fields := []zap.Field{
			zap.String("kind", kind.String()),
			zap.String("actor", actorID),
			zap.String("signature", headers.Get(signature.HeaderName)),
			zap.Error(err),
		}
		if params != nil {
			fields = append(fields,
				zap.String("key_id", params.KeyID),
				zap.Strings("covered_headers", params.Headers),
			)
		}
		v.logger.Warn("rejected signed request", fields...)
		return nil, err
	}

	v.logger.Debug("verified signed request",
		zap.String("actor", actorID),
		zap.String("key_id", auth.KeyID()),
	)
	return auth, nil
}

func (v *DefaultHTTPVerifier) verify(ctx context.Context, headers http.Header, actorID string) (*Authenticated, *signature.Params, error) {
	raw := headers.Values(signature.HeaderName)
	if len(raw) == 0 || strings.TrimSpace(raw[0]) == "" {
		return nil, nil, reject(KindNoSignatureHeader, "no Signature header", nil)
	}

	params, err := signature.Parse(raw[0])
	if err != nil {
		return nil, nil, reject(KindMalformedSignatureHeader, err.Error(), err)
	}

	key, err := v.resolver.ResolveKey(ctx, params.KeyID)
	if err != nil {
		return nil, params, reject(KindKeyResolutionFailed, "failed to resolve key "+params.KeyID, err)
	}

	signingString, err := signature.SigningString(params.Headers, headers, signature.InboxRequestTarget(actorID), v.policy)
	if err != nil {
		return nil, params, reject(KindMalformedSignatureHeader, err.Error(), err)
	}

	sig, err := base64.StdEncoding.DecodeString(params.Signature)
	if err != nil {
		return nil, params, reject(KindMalformedSignature, "signature is not valid base64", err)
	}

	err = v.signatureVerifier.Verify(key.PublicKeyPEM, []byte(signingString), sig)
	if errors.Is(err, keys.ErrVerification) {
		if fresh, ok := v.refresh(ctx, params.KeyID, key); ok {
			key = fresh
			err = v.signatureVerifier.Verify(key.PublicKeyPEM, []byte(signingString), sig)
		}
	}
	if err != nil {
		if errors.Is(err, keys.ErrInvalidPublicKey) {
			return nil, params, reject(KindInvalidPublicKey, "invalid public key for "+params.KeyID, err)
		}
		return nil, params, reject(KindVerificationFailed, "signature verification failed", err)
	}

	return newAuthenticated(key, params.KeyID, actorID, params.Headers), params, nil
}

// refresh asks a caching resolver for a newer copy of stale. It reports
// false unless a different key came back.
func (v *DefaultHTTPVerifier) refresh(ctx context.Context, keyID string, stale protocol.PublicKey) (protocol.PublicKey, bool) {
	refresher, ok := v.resolver.(KeyRefresher)
	if !ok {
		return protocol.PublicKey{}, false
	}
	fresh, ok, err := refresher.RefreshKey(ctx, keyID)
	if err != nil {
		v.logger.Warn("key refresh failed", zap.String("key_id", keyID), zap.Error(err))
		return protocol.PublicKey{}, false
	}
	if !ok || fresh.PublicKeyPEM == stale.PublicKeyPEM {
		return protocol.PublicKey{}, false
	}
	v.logger.Info("refetched rotated key", zap.String("key_id", keyID))
	return fresh, true
}
