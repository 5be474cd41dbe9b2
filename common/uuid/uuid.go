// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package uuid

import (
	"database/sql/driver"
	"fmt"

	guuid "github.com/google/uuid"
)

// UUID represents a 16-byte universally unique identifier.
// It is a wrapper around google/uuid with the following differences:
//   - the type is a byte slice instead of [16]byte so that it is compatible with some db drivers
//   - db serialization converts the uuid to bytes as opposed to string
type UUID []byte

func MustNewUUID() UUID {
	newUuid := guuid.New()
	return newUuid[:]
}

// MustParseUUID returns a UUID parsed from the given string representation
// panics if the given input is malformed
func MustParseUUID(s string) UUID {
	parsed, err := guuid.Parse(s)
	if err != nil {
		panic("invalid UUID string: " + s)
	}
	return parsed[:]
}

// ParseUUID decodes s into a UUID or returns an error.
func ParseUUID(s string) (UUID, error) {
	parsed, err := guuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID string: %s", s)
	}
	return parsed[:], nil
}

// String returns the 36 byte hexstring representation of this uuid
// returns empty string if this uuid is nil
func (u UUID) String() string {
	if u == nil {
		return ""
	}
	parsed, err := guuid.FromBytes(u)
	if err != nil {
		return ""
	}
	return parsed.String()
}

// Scan implements sql.Scanner so that this type can be
// read transparently by database drivers
func (u *UUID) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	parsed := &guuid.UUID{}
	if err := parsed.Scan(src); err != nil {
		return err
	}
	*u = (*parsed)[:]
	return nil
}

// Value implements sql.Valuer so that UUIDs can be written to databases
// transparently. This method returns a byte slice representation of the uuid
func (u UUID) Value() (driver.Value, error) {
	return []byte(u), nil
}
