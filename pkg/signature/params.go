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
	"strings"
)

// HeaderName is the request header carrying the signature parameters
const HeaderName = "Signature"

// legacyPrefix is sent by some peers in front of the parameter list
const legacyPrefix = "Signature "

// Parameter names understood by Parse
const (
	ParamKeyID     = "keyId"
	ParamHeaders   = "headers"
	ParamSignature = "signature"
	ParamAlgorithm = "algorithm"
)

// ErrMalformedHeader is wrapped by every failure returned from Parse
var ErrMalformedHeader = errors.New("malformed signature header")

// ParseError describes why a Signature header value was rejected
type ParseError struct {
	// Msg is a short human readable reason, e.g. "keyId not found"
	Msg string

	// Offset is the byte offset where the grammar failed, or -1 when the
	// failure is not positional (missing parameter)
	Offset int
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%s: %s", ErrMalformedHeader, e.Msg)
	}
	return fmt.Sprintf("%s: %s at offset %d", ErrMalformedHeader, e.Msg, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedHeader
}

// Params holds the parameters of one Signature header
type Params struct {
	// KeyID names the signing key and doubles as the URL of a document holding it
	KeyID string

	// Headers lists the covered header names in signer order, case preserved
	Headers []string

	// Signature is the base64 text of the signature
	Signature string

	// Algorithm is informational only; the verification scheme is fixed
	Algorithm string
}

// Param is one raw key/value pair from the header
type Param struct {
	Key   string
	Value string
}

// Parse parses a Signature header value into Params.
//
// Unknown parameters are skipped. keyId, headers and signature are required.
func Parse(raw string) (*Params, error) {
	list, err := ParseList(raw)
	if err != nil {
		return nil, err
	}

	var (
		params                  Params
		hasKey, hasHdrs, hasSig bool
		headers                 string
	)
	for _, p := range list {
		switch p.Key {
		case ParamKeyID:
			params.KeyID, hasKey = p.Value, true
		case ParamHeaders:
			headers, hasHdrs = p.Value, true
		case ParamSignature:
			params.Signature, hasSig = p.Value, true
		case ParamAlgorithm:
			params.Algorithm = p.Value
		}
	}

	switch {
	case !hasKey:
		return nil, &ParseError{Msg: ParamKeyID + " not found", Offset: -1}
	case !hasHdrs:
		return nil, &ParseError{Msg: ParamHeaders + " not found", Offset: -1}
	case !hasSig:
		return nil, &ParseError{Msg: ParamSignature + " not found", Offset: -1}
	}

	params.Headers = strings.Fields(headers)
	if len(params.Headers) == 0 {
		return nil, &ParseError{Msg: ParamHeaders + " is empty", Offset: -1}
	}
	return &params, nil
}

// ParseList parses the raw parameter list without interpreting keys.
func ParseList(raw string) ([]Param, error) {
	p := &parser{in: raw}
	if strings.HasPrefix(raw, legacyPrefix) {
		p.pos = len(legacyPrefix)
	}

	var out []Param
	p.skipSpace()
	if p.eof() {
		return out, nil
	}
	for {
		param, err := p.param()
		if err != nil {
			return nil, err
		}
		out = append(out, param)

		p.skipSpace()
		if p.eof() {
			return out, nil
		}
		if p.peek() != ',' {
			return nil, p.fail("expected ','")
		}
		p.pos++
		p.skipSpace()
	}
}

type parser struct {
	in  string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.in) }

func (p *parser) peek() byte { return p.in[p.pos] }

func (p *parser) fail(msg string) error {
	return &ParseError{Msg: msg, Offset: p.pos}
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) param() (Param, error) {
	key, err := p.token()
	if err != nil {
		return Param{}, err
	}
	p.skipSpace()
	if p.eof() || p.peek() != '=' {
		return Param{}, p.fail("expected '=' after " + key)
	}
	p.pos++
	p.skipSpace()
	if p.eof() {
		return Param{}, p.fail("missing value for " + key)
	}

	var value string
	if p.peek() == '"' {
		value, err = p.quoted()
	} else {
		value, err = p.token()
	}
	if err != nil {
		return Param{}, err
	}
	return Param{Key: key, Value: value}, nil
}

func (p *parser) token() (string, error) {
	start := p.pos
	for !p.eof() && isAlnum(p.peek()) {
		p.pos++
	}
	if p.pos == start {
		return "", p.fail("expected token")
	}
	return p.in[start:p.pos], nil
}

// quoted reads a double-quoted string; a backslash escapes the next byte
func (p *parser) quoted() (string, error) {
	start := p.pos
	p.pos++ // opening quote

	var b strings.Builder
	for {
		if p.eof() {
			return "", &ParseError{Msg: "unterminated quoted string", Offset: start}
		}
		c := p.peek()
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.eof() {
				return "", p.fail("dangling escape")
			}
			b.WriteByte(p.peek())
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
