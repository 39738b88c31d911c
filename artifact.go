package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

// PlatformArtifact describes a single platform archive about to be published.
type PlatformArtifact struct {
	OS       string `json:"os" yaml:"os"`
	Arch     string `json:"arch" yaml:"arch"`
	Shasum   string `json:"shasum" yaml:"shasum"`
	Filename string `json:"filename" yaml:"filename"`

	// Path is the local path of the archive.
	Path string `json:"-" yaml:"-"`
}

// ParsePlatform extracts the os and arch tokens from an archive name of the
// form <prefix>_<version>_<os>_<arch>.<ext>.
//
// The split is positional, so a prefix or version containing an underscore
// is rejected rather than misread.
func ParsePlatform(filename string) (osName string, arch string, err error) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(stem, "_")
	if len(parts) != 4 {
		return "", "", &NamingError{
			Filename: base,
			Reason:   fmt.Sprintf("expected 4 underscore separated fields, got %d", len(parts)),
		}
	}
	for i, p := range parts {
		if p == "" {
			return "", "", &NamingError{Filename: base, Reason: fmt.Sprintf("field %d is empty", i+1)}
		}
	}

	return parts[2], parts[3], nil
}

// NewPlatformArtifact derives the platform metadata for the archive at path
// and looks up its checksum in the index.
func NewPlatformArtifact(path string, index ChecksumIndex) (PlatformArtifact, error) {
	filename := filepath.Base(path)

	osName, arch, err := ParsePlatform(filename)
	if err != nil {
		return PlatformArtifact{}, err
	}

	sum, ok := index.Lookup(filename)
	if !ok {
		return PlatformArtifact{}, &ParseError{Reason: "no checksum listed for " + filename}
	}

	return PlatformArtifact{
		OS:       osName,
		Arch:     arch,
		Shasum:   sum,
		Filename: filename,
		Path:     path,
	}, nil
}

// DistFiles lists the release files found in a dist directory.
type DistFiles struct {
	Sums     string
	Sig      string
	Archives []string
}

// DiscoverDist locates the checksum list, its detached signature and the
// platform archives inside dir. A dist without archives is valid.
func DiscoverDist(dir string) (DistFiles, error) {
	var files DistFiles

	sums, err := globOne(dir, "*SHA256SUMS")
	if err != nil {
		return files, err
	}
	sig, err := globOne(dir, "*SHA256SUMS.sig")
	if err != nil {
		return files, err
	}
	archives, err := filepath.Glob(filepath.Join(dir, "*.zip"))
	if err != nil {
		return files, err
	}
	if len(archives) == 0 {
		slog.Warn("no platform archives found, only the checksum files will be published", "dist", dir)
	}
	sort.Strings(archives)

	files.Sums = sums
	files.Sig = sig
	files.Archives = archives
	return files, nil
}

func globOne(dir string, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", &ConfigurationError{Key: "dist", Reason: fmt.Sprintf("no file matching %s in %s", pattern, dir)}
	case 1:
		return matches[0], nil
	}
	return "", &ConfigurationError{Key: "dist", Reason: fmt.Sprintf("multiple files matching %s in %s: %v", pattern, dir, matches)}
}
