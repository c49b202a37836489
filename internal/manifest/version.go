package manifest

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultVersion is used when neither the environment nor the manifest
// provides a usable Odoo version.
var DefaultVersion = Version{Major: 18, Minor: 0}

// Version is an Odoo series such as 16.0.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports v >= major.0.
func (v Version) AtLeast(major int) bool {
	return v.Major >= major
}

// ParseVersion reads the series from "16.0.1.0.0" or "16.0".
func ParseVersion(s string) (Version, bool) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 {
		return DefaultVersion, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil || major <= 0 {
		return DefaultVersion, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor < 0 {
		return DefaultVersion, false
	}
	return Version{Major: major, Minor: minor}, true
}

// Version env names, checked around the manifest value.
const (
	EnvOdooVersion = "OCA_HOOKS_ODOO_VERSION"
	EnvVersion     = "VERSION"
)

// ResolveVersion picks the series for a module: the OCA_HOOKS_ODOO_VERSION
// env, then the manifest version, then the VERSION env used by CI images.
// ok is false when the default had to be used.
func ResolveVersion(manifestVersion string, getenv func(string) string) (Version, bool) {
	candidates := []string{manifestVersion}
	if getenv != nil {
		candidates = []string{getenv(EnvOdooVersion), manifestVersion, getenv(EnvVersion)}
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if v, ok := ParseVersion(c); ok {
			return v, true
		}
	}
	return DefaultVersion, false
}
