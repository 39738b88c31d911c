package main

import (
	"strings"

	"github.com/AsaiYusuke/jsonpath"
	"github.com/Masterminds/semver/v3"
)

// VersionFromRef derives the release version from a tag like `v1.2.3`.
// A single leading `v` is removed and the rest must be a semantic version.
func VersionFromRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", &ConfigurationError{Key: "REF_NAME", Reason: "must not be empty"}
	}

	version := strings.TrimPrefix(ref, "v")
	if _, err := semver.StrictNewVersion(version); err != nil {
		return "", &ConfigurationError{Key: "REF_NAME", Reason: "not a semantic version: " + err.Error()}
	}
	return version, nil
}

// containsVersion reports whether versions lists want, comparing
// semantically so that `1.2.3` matches `v1.2.3`.
func containsVersion(versions []string, want string) bool {
	w, err := semver.NewVersion(want)
	if err != nil {
		return false
	}
	for _, raw := range versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if v.Equal(w) {
			return true
		}
	}
	return false
}

// retrieveStrings applies the JSONPath path to src and returns every
// non-empty string result. Paths are compile time constants, so a retrieval
// error only means that nothing matched.
func retrieveStrings(src any, path string) []string {
	results, err := jsonpath.Retrieve(path, src)
	if err != nil {
		return nil
	}

	var values []string
	for _, result := range results {
		s, ok := result.(string)
		if !ok || s == "" {
			continue
		}
		values = append(values, s)
	}
	return values
}

// retrieveString returns the first string matched by path, or "" when
// nothing matches.
func retrieveString(src any, path string) string {
	if values := retrieveStrings(src, path); len(values) > 0 {
		return values[0]
	}
	return ""
}
