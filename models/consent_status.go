// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package models

import "time"

// ConsentStatus records, per subpopulation, whether and when the
// participant signed the currently active consent document
type ConsentStatus struct {
	SubpopulationGuid string
	Required          bool
	Consented         bool
	SignedOn          *time.Time
}
