package version

import (
	"fmt"
	"strings"
)

// BumpType names the version component incremented for the next development version.
type BumpType string

// Bump type constants.
const (
	BumpMajor BumpType = "major"
	BumpMinor BumpType = "minor"
	BumpPatch BumpType = "patch"
)

// DefaultBumpType is used when no bump type is configured.
const DefaultBumpType = BumpMinor

// BumpTypes lists every valid bump type.
var BumpTypes = []BumpType{BumpMajor, BumpMinor, BumpPatch}

// ParseBumpType parses a case-insensitive bump type name.
// An empty string yields [DefaultBumpType].
func ParseBumpType(s string) (BumpType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultBumpType, nil
	}
	t := BumpType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q (want major, minor or patch)", ErrInvalidBumpType, s)
	}
	return t, nil
}

// IsValid reports whether t is one of the known bump types.
func (t BumpType) IsValid() bool {
	switch t {
	case BumpMajor, BumpMinor, BumpPatch:
		return true
	}
	return false
}

// String returns the bump type name.
func (t BumpType) String() string {
	return string(t)
}
