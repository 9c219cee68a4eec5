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

import "time"

// Key lookup outcomes reported to an Observer
const (
	LookupCacheHit    = "cache_hit"
	LookupFetched     = "fetched"
	LookupFetchFailed = "fetch_failed"
	LookupRejected    = "rejected"
	LookupRefreshed   = "refreshed"
)

// Observer receives verification events, typically to export metrics
type Observer interface {
	// ObserveVerification is called once per Verify; kind is KindNone on success
	ObserveVerification(kind ErrorKind, elapsed time.Duration)

	// ObserveKeyLookup is called for each remote key lookup
	ObserveKeyLookup(outcome string)
}

// NopObserver discards events
type NopObserver struct{}

func (NopObserver) ObserveVerification(ErrorKind, time.Duration) {}

func (NopObserver) ObserveKeyLookup(string) {}
