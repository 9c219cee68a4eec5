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
// Package signature implements the draft-cavage HTTP Signatures header
// used by ActivityPub servers.
//
// # Parsing
//
// A Signature header is a comma separated list of key=value parameters:
//
//	keyId="https://example.com/users/alice#main-key",algorithm="rsa-sha256",
//	headers="(request-target) host date",signature="base64..."
//
// Parse returns the keyId, the ordered list of covered headers and the
// base64 signature. Some peers prefix the list with "Signature "; the
// prefix is discarded. Unknown parameters are ignored.
//
// # Signing string
//
// SigningString rebuilds the bytes the sender signed from the covered
// header list and the received headers:
//
//	(request-target): post /users/alice/inbox
//	host: example.com
//	date: Sun, 06 Nov 2021 08:49:37 GMT
//
// The request target is supplied by the caller. Inbox deliveries use
// InboxRequestTarget, outbound signers use RequestTargetOf.
package signature
