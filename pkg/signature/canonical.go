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
package signature

import (
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
	"strings"
)

// RequestTarget is the pseudo-header synthesized from the request line
const RequestTarget = "(request-target)"

// ErrMissingHeader is returned under MissingHeaderStrict when a covered
// header is absent from the request
var ErrMissingHeader = errors.New("covered header missing from request")

// MissingHeaderPolicy decides what happens when a covered header is absent
type MissingHeaderPolicy int

const (
	// MissingHeaderLenient signs an absent header as an empty value
	MissingHeaderLenient MissingHeaderPolicy = iota

	// MissingHeaderStrict rejects the request with ErrMissingHeader
	MissingHeaderStrict
)

func (p MissingHeaderPolicy) String() string {
	switch p {
	case MissingHeaderLenient:
		return "lenient"
	case MissingHeaderStrict:
		return "strict"
	default:
		return fmt.Sprintf("MissingHeaderPolicy(%d)", int(p))
	}
}

// InboxRequestTarget returns the request target of a delivery to the
// inbox of the given local actor.
func InboxRequestTarget(actorID string) string {
	return "post /users/" + actorID + "/inbox"
}

// RequestTargetOf returns "{lower(method)} {request-uri}" for an outbound request.
func RequestTargetOf(method, requestURI string) string {
	if requestURI == "" {
		requestURI = "/"
	}
	return strings.ToLower(method) + " " + requestURI
}

// SigningString rebuilds the exact byte sequence a signer signed.
//
// Each covered header contributes one "name: value" line with the name
// lowercased; lines are joined by a single LF with no trailing newline.
// The (request-target) entry is always taken from requestTarget and never
// from headers. Several values of one header are joined with ", ".
func SigningString(covered []string, headers http.Header, requestTarget string, policy MissingHeaderPolicy) (string, error) {
	var b strings.Builder
	for i, name := range covered {
		lower := strings.ToLower(name)

		var value string
		if lower == RequestTarget {
			value = requestTarget
		} else {
			values, ok := lookup(headers, name)
			if !ok && policy == MissingHeaderStrict {
				return "", fmt.Errorf("%w: %s", ErrMissingHeader, lower)
			}
			value = strings.Join(values, ", ")
		}

		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(lower)
		b.WriteString(": ")
		b.WriteString(value)
	}
	return b.String(), nil
}

// lookup finds name in headers ignoring case, including maps that were
// not built through the canonicalizing http.Header setters
func lookup(headers http.Header, name string) ([]string, bool) {
	if v, ok := headers[textproto.CanonicalMIMEHeaderKey(name)]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}
