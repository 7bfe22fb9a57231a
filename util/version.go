// Package util provides helpers for version parsing, PURL normalization,
// and CVSS scoring used across the advisory backend.
package util

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	npm "github.com/aquasecurity/go-npm-version/pkg"
	pep440 "github.com/aquasecurity/go-pep440-version"
)

// ParsedVersion holds parsed semantic version components
type ParsedVersion struct {
	Major *int
	Minor *int
	Patch *int
}

// ParseSemanticVersion parses a version string into numeric components.
// Returns nil values for components that cannot be parsed.
func ParseSemanticVersion(version string) *ParsedVersion {
	if version == "" {
		return &ParsedVersion{}
	}

	// Special case for "0" (used in OSV for "from beginning")
	if version == "0" {
		zero := 0
		return &ParsedVersion{Major: &zero, Minor: &zero, Patch: &zero}
	}

	// Strip "go" prefix for Go stdlib versions (e.g. "go1.22.2") before
	// semver parsing since Masterminds/semver doesn't handle it
	cleanVersion := strings.TrimPrefix(version, "go")

	// Try semver parsing first
	v, err := semver.NewVersion(cleanVersion)
	if err == nil {
		major := int(v.Major())
		minor := int(v.Minor())
		patch := int(v.Patch())

		return &ParsedVersion{
			Major: &major,
			Minor: &minor,
			Patch: &patch,
		}
	}

	// Fallback: parse manually for versions like "1.2" or "2"
	parts := strings.Split(cleanVersion, ".")
	result := &ParsedVersion{}

	if len(parts) >= 1 {
		if major, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			result.Major = &major
		}
	}
	if len(parts) >= 2 {
		if minor, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			result.Minor = &minor
		}
	}
	if len(parts) >= 3 {
		// Remove any pre-release or build metadata
		patchStr := strings.FieldsFunc(parts[2], func(r rune) bool {
			return r == '-' || r == '+'
		})[0]
		if patch, err := strconv.Atoi(strings.TrimSpace(patchStr)); err == nil {
			result.Patch = &patch
		}
	}

	return result
}

// IsValidVersion reports whether a version string parses under the given
// ecosystem's versioning scheme. npm and PyPI have their own parsers; other
// ecosystems fall back to semver, and anything non-empty passes when even
// semver cannot handle it (apk and deb versions are not semver).
func IsValidVersion(ecosystem, version string) bool {
	if strings.TrimSpace(version) == "" {
		return false
	}

	switch strings.ToLower(ecosystem) {
	case "npm":
		_, err := npm.NewVersion(version)
		return err == nil
	case "pypi":
		_, err := pep440.Parse(version)
		return err == nil
	default:
		if _, err := semver.NewVersion(version); err == nil {
			return true
		}
		// Non-semver schemes (apk, deb) still carry meaningful versions
		return true
	}
}
