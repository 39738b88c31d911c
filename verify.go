package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// VerifyOptions configures an offline check of a dist directory.
type VerifyOptions struct {
	DistDir  string
	Provider ProviderAddress
	Keyring  openpgp.EntityList
	KeyID    string
}

// VerifyRelease checks a dist directory without contacting the registry.
// Every archive must be named by convention, be listed in the checksum
// file with a matching SHA-256 and contain the provider binary.
func VerifyRelease(opts VerifyOptions, pr progress) ([]PlatformArtifact, error) {
	if pr == nil {
		pr = nopProgress{}
	}

	files, err := step(pr, "Locating release files", func() (DistFiles, error) {
		return DiscoverDist(opts.DistDir)
	})
	if err != nil {
		return nil, err
	}

	index, err := step(pr, "Reading "+filepath.Base(files.Sums), func() (ChecksumIndex, error) {
		return BuildChecksumIndex(files.Sums)
	})
	if err != nil {
		return nil, err
	}

	if len(opts.Keyring) > 0 {
		if _, err := step(pr, "Verifying signature", func() (struct{}, error) {
			return struct{}{}, VerifySignature(files.Sums, files.Sig, opts.Keyring, opts.KeyID)
		}); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(files.Archives))
	artifacts := make([]PlatformArtifact, 0, len(files.Archives))
	for _, path := range files.Archives {
		artifact, err := step(pr, "Checking "+filepath.Base(path), func() (PlatformArtifact, error) {
			return checkArtifact(path, index, opts.Provider.ArchivePrefix())
		})
		if err != nil {
			return nil, err
		}
		seen[artifact.Filename] = true
		artifacts = append(artifacts, artifact)
	}

	for filename := range index {
		if strings.HasSuffix(filename, ".zip") && !seen[filename] {
			slog.Warn("archive listed in checksum file is missing", "filename", filename, "dist", opts.DistDir)
		}
	}

	return artifacts, nil
}

func checkArtifact(path string, index ChecksumIndex, prefix string) (PlatformArtifact, error) {
	artifact, err := NewPlatformArtifact(path, index)
	if err != nil {
		return PlatformArtifact{}, err
	}
	if err := VerifyArchive(path, artifact.Shasum); err != nil {
		return PlatformArtifact{}, err
	}
	entry, err := InspectArchive(path, prefix)
	if err != nil {
		return PlatformArtifact{}, err
	}
	slog.Debug("archive verified", "filename", artifact.Filename, "os", artifact.OS, "arch", artifact.Arch, "binary", entry)
	return artifact, nil
}

func (o VerifyOptions) String() string {
	return fmt.Sprintf("%s (%s)", o.DistDir, o.Provider.ArchivePrefix())
}
