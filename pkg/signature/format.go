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

import "strings"

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Format renders p as a Signature header value that Parse accepts.
// The algorithm parameter is omitted when empty.
func Format(p *Params) string {
	var b strings.Builder
	writeParam(&b, ParamKeyID, p.KeyID)
	if p.Algorithm != "" {
		writeParam(&b, ParamAlgorithm, p.Algorithm)
	}
	writeParam(&b, ParamHeaders, strings.Join(p.Headers, " "))
	writeParam(&b, ParamSignature, p.Signature)
	return b.String()
}

func writeParam(b *strings.Builder, key, value string) {
	if b.Len() > 0 {
		b.WriteByte(',')
	}
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(escaper.Replace(value))
	b.WriteByte('"')
}
