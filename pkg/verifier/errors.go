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
	"errors"
	"net/http"
)

// ErrorKind classifies why a request was rejected
type ErrorKind int

const (
	// KindNone is returned by KindOf for errors that are not *AuthError
	KindNone ErrorKind = iota
	KindNoSignatureHeader
	KindMalformedSignatureHeader
	KindMalformedSignature
	KindKeyResolutionFailed
	KindInvalidPublicKey
	KindVerificationFailed
)

var kindNames = map[ErrorKind]string{
	KindNone:                     "None",
	KindNoSignatureHeader:        "NoSignatureHeader",
	KindMalformedSignatureHeader: "MalformedSignatureHeader",
	KindMalformedSignature:       "MalformedSignature",
	KindKeyResolutionFailed:      "KeyResolutionFailed",
	KindInvalidPublicKey:         "InvalidPublicKey",
	KindVerificationFailed:       "VerificationFailed",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// StatusCode maps the kind to the HTTP status returned to the peer.
// Requests the peer could fix by re-encoding are 400, the rest 401.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindMalformedSignatureHeader, KindMalformedSignature:
		return http.StatusBadRequest
	default:
		return http.StatusUnauthorized
	}
}

// AuthError is returned for every rejected request
type AuthError struct {
	Kind ErrorKind

	// Reason is safe to show to the peer
	Reason string

	// Err is the underlying cause, if any
	Err error
}

// Error appends the cause unless it only repeats Reason
func (e *AuthError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Reason {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches another *AuthError of the same kind, so callers can write
// errors.Is(err, &verifier.AuthError{Kind: verifier.KindVerificationFailed})
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the *AuthError in err's chain, or KindNone
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindNone
}

func reject(kind ErrorKind, reason string, err error) *AuthError {
	return &AuthError{Kind: kind, Reason: reason, Err: err}
}
