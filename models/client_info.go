// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package models

// ClientInfo describes the requesting client app, parsed by the caller
// from the User-Agent header. The zero value means "unknown client" and
// matches every version range.
type ClientInfo struct {
	AppName string
	// AppVersion is 0 when unknown
	AppVersion int
	OSName     string
}

// IsTargetedAppVersion reports whether this client falls into the
// [min, max] app version range. A nil bound is open on that side, and an
// unknown client version is never filtered out.
func (c ClientInfo) IsTargetedAppVersion(minAppVersion *int, maxAppVersion *int) bool {
	if c.AppVersion == 0 {
		return true
	}
	if minAppVersion != nil && c.AppVersion < *minAppVersion {
		return false
	}
	if maxAppVersion != nil && c.AppVersion > *maxAppVersion {
		return false
	}
	return true
}
