// Package identity computes the canonical advisory identity key.
//
// Every component of the pipeline that needs an advisory key must call
// Canonical rather than building keys locally. Divergent canonicalization
// between components produces duplicate or missing state rows for the same
// advisory, which is the most damaging failure mode this system has.
package identity

import (
	"errors"
	"strings"

	"github.com/echotrust/advisory-backend/util"
)

// ErrMalformedIdentity marks an observation that carries no usable key.
var ErrMalformedIdentity = errors.New("observation has no vulnerability id")

// Canonical computes the advisory identity key for a (component, vuln) pair.
//
// If a component is known the key is "<component>:<vuln-id>"; a
// vulnerability-only signal keys on the vulnerability id alone. Components
// given as PURLs are reduced to their lowercase base PURL so that
// "pkg:npm/lodash@4.17.20" and "pkg:npm/lodash" collapse to one identity.
func Canonical(component, vulnID string) (string, error) {
	vulnID = strings.ToUpper(strings.TrimSpace(vulnID))
	if vulnID == "" {
		return "", ErrMalformedIdentity
	}

	component = NormalizeComponent(component)
	if component == "" {
		return vulnID, nil
	}
	return component + ":" + vulnID, nil
}

// NormalizeComponent lowercases and trims a component name, reducing PURLs
// to their base form. A PURL that fails to parse is kept as a lowercase
// literal rather than dropped; the identity stays stable either way.
func NormalizeComponent(component string) string {
	component = strings.TrimSpace(component)
	if component == "" {
		return ""
	}

	if strings.HasPrefix(component, "pkg:") {
		if base, err := util.GetStandardBasePURL(component); err == nil {
			return base
		}
	}
	return strings.ToLower(component)
}
