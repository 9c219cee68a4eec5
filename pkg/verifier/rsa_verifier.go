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
	"github.com/rap-project/rap-go/pkg/keys"
)

// SignatureVerifier checks a signature over a signing string
type SignatureVerifier interface {
	// Verify returns keys.ErrInvalidPublicKey when the PEM cannot be used and
	// keys.ErrVerification when the signature does not match
	Verify(publicKeyPEM string, signingString, signature []byte) error
}

// RSAVerifier verifies RSASSA-PKCS1-v1_5 signatures over SHA-256
type RSAVerifier struct{}

// NewRSAVerifier creates an RSAVerifier
func NewRSAVerifier() *RSAVerifier {
	return &RSAVerifier{}
}

func (v *RSAVerifier) Verify(publicKeyPEM string, signingString, signature []byte) error {
	return keys.VerifyPEM(publicKeyPEM, signingString, signature)
}
