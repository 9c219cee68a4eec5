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
package signer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	rap "github.com/rap-project/rap-go"
	"github.com/rap-project/rap-go/pkg/signature"
)

// DigestHeader carries the SHA-256 of the request body
const DigestHeader = "Digest"

// DefaultRequestSigner implements RequestSigner with rsa-sha256 signatures
type DefaultRequestSigner struct {
	now func() time.Time
}

// NewDefaultRequestSigner creates a new DefaultRequestSigner
func NewDefaultRequestSigner() *DefaultRequestSigner {
	return &DefaultRequestSigner{now: time.Now}
}

// SignRequest signs req with the default header set
func (s *DefaultRequestSigner) SignRequest(ctx context.Context, req *http.Request, key KeyPair) error {
	return s.SignRequestWithOptions(ctx, req, key, nil)
}

// SignRequestWithOptions signs req. Date and Digest headers are added
// when missing and covered. Covered headers that are still absent are an error.
func (s *DefaultRequestSigner) SignRequestWithOptions(ctx context.Context, req *http.Request, key KeyPair, opts *SigningOptions) error {
	// Check context
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	// Validate inputs
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}
	if key == nil {
		return fmt.Errorf("key pair cannot be nil")
	}
	if key.KeyID() == "" {
		return fmt.Errorf("key id cannot be empty")
	}
	if opts == nil {
		opts = &SigningOptions{}
	}

	body, err := readBody(req)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	covered := opts.Headers
	if len(covered) == 0 {
		covered = defaultHeaders(req, body != nil)
	}

	if req.Header == nil {
		req.Header = http.Header{}
	}
	if covers(covered, "date") && req.Header.Get("Date") == "" {
		date := opts.Date
		if date.IsZero() {
			date = s.now()
		}
		req.Header.Set("Date", date.UTC().Format(http.TimeFormat))
	}
	if covers(covered, "digest") && req.Header.Get(DigestHeader) == "" {
		req.Header.Set(DigestHeader, Digest(body))
	}

	// Host lives outside the header map on outgoing requests.
	headers := req.Header.Clone()
	if headers.Get("Host") == "" {
		headers.Set("Host", hostOf(req))
	}

	signingString, err := signature.SigningString(
		covered,
		headers,
		signature.RequestTargetOf(req.Method, req.URL.RequestURI()),
		signature.MissingHeaderStrict,
	)
	if err != nil {
		return fmt.Errorf("failed to build signing string: %w", err)
	}

	sig, err := key.Sign([]byte(signingString))
	if err != nil {
		return fmt.Errorf("failed to sign: %w", err)
	}

	algorithm := opts.Algorithm
	if algorithm == "" {
		algorithm = rap.SignatureAlgorithm
	}

	req.Header.Set(signature.HeaderName, signature.Format(&signature.Params{
		KeyID:     key.KeyID(),
		Algorithm: algorithm,
		Headers:   covered,
		Signature: base64.StdEncoding.EncodeToString(sig),
	}))
	return nil
}

// Digest returns the Digest header value for body
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
}

func defaultHeaders(req *http.Request, hasBody bool) []string {
	covered := []string{signature.RequestTarget, "host", "date"}
	if hasBody {
		covered = append(covered, "digest")
		if req.Header.Get("Content-Type") != "" {
			covered = append(covered, "content-type")
		}
	}
	return covered
}

// readBody reads and restores the request body; nil means no body
func readBody(req *http.Request) ([]byte, error) {
	if req == nil || req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.ContentLength = int64(len(data))
	return data, nil
}

func hostOf(req *http.Request) string {
	if req.Host != "" {
		return req.Host
	}
	if req.URL != nil {
		return req.URL.Host
	}
	return ""
}

func covers(covered []string, name string) bool {
	for _, h := range covered {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}
