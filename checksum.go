package main

import (
	"bufio"
	"crypto"
	_ "crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ChecksumIndex maps artifact filenames to their hex encoded SHA-256 sums.
type ChecksumIndex map[string]string

// BuildChecksumIndex reads a sha256sum style checksum list from path.
func BuildChecksumIndex(path string) (ChecksumIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ParseError{Path: path, Reason: "checksum file not found"}
		}
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	return ParseChecksumIndex(file, path)
}

// ParseChecksumIndex parses lines of the form `<checksum> <filename>`.
// Blank lines are skipped; every other line must have exactly two fields.
// The name is only used for error messages.
func ParseChecksumIndex(r io.Reader, name string) (ChecksumIndex, error) {
	index := make(ChecksumIndex)

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, &ParseError{
				Path:   name,
				Line:   lineno,
				Reason: fmt.Sprintf("expected 2 fields, got %d", len(fields)),
			}
		}

		sum, filename := fields[0], strings.TrimPrefix(fields[1], "*") // binary mode marker
		if _, ok := index[filename]; ok {
			return nil, &ParseError{Path: name, Line: lineno, Reason: "duplicate entry for " + filename}
		}
		index[filename] = sum
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: name, Reason: err.Error()}
	}
	if len(index) == 0 {
		return nil, &ParseError{Path: name, Reason: "no artifacts listed"}
	}

	return index, nil
}

// Lookup returns the checksum recorded for filename.
func (idx ChecksumIndex) Lookup(filename string) (string, bool) {
	sum, ok := idx[filename]
	return sum, ok
}

// VerifyArchive hashes the file at path and compares it to want.
func VerifyArchive(path string, want string) error {
	got, err := digestFile(path)
	if err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", path, want, got)
	}
	return nil
}

func digestFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()
	return digest(file)
}

func digest(in io.Reader) (string, error) {
	hash := crypto.SHA256.New()
	if _, err := io.Copy(hash, in); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
