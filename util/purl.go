package util

import (
	"strings"

	"github.com/package-url/packageurl-go"
)

// EcosystemToPurlType converts an OSV ecosystem name to a PURL type.
func EcosystemToPurlType(ecosystem string) string {
	mapping := map[string]string{
		"npm":        "npm",
		"PyPI":       "pypi",
		"Maven":      "maven",
		"Go":         "golang",
		"NuGet":      "nuget",
		"RubyGems":   "gem",
		"crates.io":  "cargo",
		"Packagist":  "composer",
		"Pub":        "pub",
		"CocoaPods":  "cocoapods",
		"Hex":        "hex",
		"Alpine":     "apk",
		"Wolfi":      "apk",
		"Chainguard": "apk",
		"Debian":     "deb",
		"Ubuntu":     "deb",
	}

	// Try exact match first
	if purlType, exists := mapping[ecosystem]; exists {
		return purlType
	}

	// Fallback: try case-insensitive
	for key, value := range mapping {
		if strings.EqualFold(key, ecosystem) {
			return value
		}
	}

	// Last resort: return lowercase ecosystem
	return strings.ToLower(ecosystem)
}

// GetStandardBasePURL extracts a standardized base PURL (no version/qualifiers).
// Advisory identities built from PURLs must all go through this so that the
// same package never produces two different identity keys.
// Example: "pkg:apk/wolfi/glibc@2.42-r4" -> "pkg:apk/wolfi/glibc"
func GetStandardBasePURL(purlStr string) (string, error) {
	parsed, err := packageurl.FromString(purlStr)
	if err != nil {
		return "", err
	}

	// Normalize the ecosystem using our mapping
	normalizedType := EcosystemToPurlType(parsed.Type)

	base := packageurl.PackageURL{
		Type:      normalizedType,
		Namespace: parsed.Namespace,
		Name:      parsed.Name,
		// Version, Qualifiers, Subpath intentionally omitted
	}

	return strings.ToLower(base.ToString()), nil
}

// GetBasePURLFromComponents constructs a standardized base PURL from an
// ecosystem and package name.
// Example: ("Wolfi", "wolfi", "glibc") -> "pkg:apk/wolfi/glibc"
func GetBasePURLFromComponents(ecosystem, namespace, name string) string {
	purlType := EcosystemToPurlType(ecosystem)

	var basePurl string
	if namespace != "" {
		basePurl = "pkg:" + purlType + "/" + namespace + "/" + name
	} else {
		basePurl = "pkg:" + purlType + "/" + name
	}

	return strings.ToLower(basePurl)
}
