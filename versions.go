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

// Package rap provides version information for rap-go and the protocols it speaks.
package rap

const (
	// Version is the current version of rap-go
	Version = "0.3.0"

	// SignatureDraft is the HTTP Signatures draft this library verifies
	// See: https://datatracker.ietf.org/doc/html/draft-cavage-http-signatures-12
	SignatureDraft = "draft-cavage-http-signatures-12"

	// SignatureAlgorithm is the only algorithm accepted on the wire
	SignatureAlgorithm = "rsa-sha256"

	// ActivityStreamsNamespace is the ActivityStreams 2.0 context URI
	ActivityStreamsNamespace = "https://www.w3.org/ns/activitystreams"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	RapVersion         string
	SignatureDraft     string
	SignatureAlgorithm string
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		RapVersion:         Version,
		SignatureDraft:     SignatureDraft,
		SignatureAlgorithm: SignatureAlgorithm,
	}
}
