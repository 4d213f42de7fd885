package api

import (
	"strings"

	"golang.org/x/mod/semver"
)

// UserAgent returns the User-Agent header value for a build version.
// Non-semver versions such as "(devel)" report as "devel".
func UserAgent(version string) string {
	return "placify/" + CanonicalVersion(version)
}

// CanonicalVersion normalizes a build version to its semver form
// ("1.2" -> "v1.2.0"), or "devel" when it is not a semantic version.
func CanonicalVersion(version string) string {
	v := strings.TrimSpace(version)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "devel"
	}
	return semver.Canonical(v)
}
