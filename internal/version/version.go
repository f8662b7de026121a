// Package version models the semantic versions stored in package metadata.
//
// The package parses and formats semver 2.0.0 strings and implements the two
// transitions the release runbook needs:
//   - [Base] strips prerelease and build labels ("1.4.0-prerelease" -> "1.4.0")
//   - [NextPrerelease] bumps the base version and appends a prerelease label
//     ("1.4.0" + minor -> "1.5.0-prerelease")
//
// Ordering follows semver precedence and is delegated to golang.org/x/mod/semver.
package version

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultPrereleaseLabel is appended by [NextPrerelease] when no label is given.
const DefaultPrereleaseLabel = "prerelease"

var (
	// ErrInvalidVersion indicates a string that does not match the semver grammar.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrInvalidBumpType indicates a bump type other than major, minor or patch.
	ErrInvalidBumpType = errors.New("invalid bump type")
)

// semverPattern is the official semver.org regular expression with an
// optional leading "v".
var semverPattern = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
	`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// Version is a parsed semantic version.
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string
	Build      string
}

// Parse parses s into a [Version]. A leading "v" is accepted.
//
// Returns an error wrapping [ErrInvalidVersion] when s does not match the
// semver grammar or a numeric component overflows.
func Parse(s string) (Version, error) {
	m := semverPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	var nums [3]uint64
	for i := range nums {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
		}
		nums[i] = n
	}

	return Version{
		Major:      nums[0],
		Minor:      nums[1],
		Patch:      nums[2],
		Prerelease: m[4],
		Build:      m[5],
	}, nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical form MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD].
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// IsPrerelease reports whether v carries a prerelease label.
func (v Version) IsPrerelease() bool {
	return v.Prerelease != ""
}

// Base returns v with any prerelease and build metadata removed.
func Base(v Version) Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

// Bump increments the component named by t on the base of v.
//
// A major bump zeroes minor and patch, a minor bump zeroes patch.
//
// Returns an error wrapping [ErrInvalidVersion] when the component is already
// at its maximum value.
func Bump(v Version, t BumpType) (Version, error) {
	b := Base(v)
	switch t {
	case BumpMajor:
		if b.Major == math.MaxUint64 {
			return Version{}, overflowError(v, t)
		}
		return Version{Major: b.Major + 1}, nil
	case BumpMinor:
		if b.Minor == math.MaxUint64 {
			return Version{}, overflowError(v, t)
		}
		return Version{Major: b.Major, Minor: b.Minor + 1}, nil
	case BumpPatch:
		if b.Patch == math.MaxUint64 {
			return Version{}, overflowError(v, t)
		}
		return Version{Major: b.Major, Minor: b.Minor, Patch: b.Patch + 1}, nil
	default:
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidBumpType, string(t))
	}
}

func overflowError(v Version, t BumpType) error {
	return fmt.Errorf("%w: %s component of %s cannot be incremented", ErrInvalidVersion, t, v)
}

// NextPrerelease computes the next development version of v: the base version
// bumped by t, labelled with label (or [DefaultPrereleaseLabel] when empty).
//
// The result is always strictly greater than Base(v).
func NextPrerelease(v Version, t BumpType, label string) (Version, error) {
	if label == "" {
		label = DefaultPrereleaseLabel
	}

	next, err := Bump(v, t)
	if err != nil {
		return Version{}, err
	}
	next.Prerelease = label

	if !semver.IsValid("v" + next.String()) {
		return Version{}, fmt.Errorf("%w: prerelease label %q", ErrInvalidVersion, label)
	}
	return next, nil
}

// Compare returns -1, 0 or +1 according to semver precedence of a and b.
// Build metadata is ignored.
func Compare(a, b Version) int {
	return semver.Compare("v"+a.String(), "v"+b.String())
}

// Less reports whether a has lower precedence than b.
func Less(a, b Version) bool {
	return Compare(a, b) < 0
}
