// Package ident generates and compares identifiers of sub-collection records.
package ident

import (
	"fmt"

	"github.com/gofrs/uuid"
)

var ErrNilID = fmt.Errorf("nil identifier")

// New returns a random (v4) identifier. Uniqueness within a parent's
// sub-collection follows from the randomness of v4 UUIDs.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// Equal reports whether a and b identify the same record.
func Equal(a, b uuid.UUID) bool {
	return a == b
}

// Parse converts the textual form of an identifier. The nil UUID is
// rejected because it never identifies a stored record.
func Parse(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, ErrNilID
	}
	return id, nil
}
