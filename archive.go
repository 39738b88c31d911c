package main

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// InspectArchive opens the zip archive at name and returns the entry holding
// the provider binary, i.e. the first regular file whose base name starts
// with prefix.
func InspectArchive(name string, prefix string) (string, error) {
	reader, err := zip.OpenReader(name)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	var entries []string
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, file.Name)
		if strings.HasPrefix(path.Base(file.Name), prefix) {
			return file.Name, nil
		}
	}

	return "", fmt.Errorf("archive %s has no %s* binary (entries: %v)", name, prefix, entries)
}
