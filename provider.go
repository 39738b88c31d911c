package main

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	defaultRegistryURL = "https://app.terraform.io/api/v2/organizations"
	defaultService     = "private"
)

// ProviderAddress identifies a provider entry in the private registry.
type ProviderAddress struct {
	RegistryURL  string
	Organization string
	Service      string
	Namespace    string
	Name         string
}

// VersionsURL returns
// {registry}/{org}/registry-providers/{service}/{namespace}/{name}/versions.
func (a ProviderAddress) VersionsURL() string {
	return fmt.Sprintf("%s/%s/registry-providers/%s/%s/%s/versions",
		strings.TrimRight(a.RegistryURL, "/"),
		url.PathEscape(a.Organization),
		url.PathEscape(a.Service),
		url.PathEscape(a.Namespace),
		url.PathEscape(a.Name),
	)
}

// PlatformsURL returns the platform collection of the given version.
func (a ProviderAddress) PlatformsURL(version string) string {
	return fmt.Sprintf("%s/%s/platforms", a.VersionsURL(), url.PathEscape(version))
}

// ArchivePrefix is the file name prefix goreleaser uses for the provider's
// release files.
func (a ProviderAddress) ArchivePrefix() string {
	return "terraform-provider-" + a.Name
}

func (a ProviderAddress) validate() error {
	u, err := url.Parse(a.RegistryURL)
	if err != nil {
		return &ConfigurationError{Key: "registry.url", Reason: err.Error()}
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return &ConfigurationError{Key: "registry.url", Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}

	required := []struct {
		key   string
		value string
	}{
		{"ORG_NAME", a.Organization},
		{"NAMESPACE", a.Namespace},
		{"provider.name", a.Name},
		{"registry.service", a.Service},
	}
	for _, r := range required {
		if r.value == "" {
			return &ConfigurationError{Key: r.key, Reason: "must not be empty"}
		}
	}
	return nil
}
