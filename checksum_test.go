package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseChecksumIndex(t *testing.T) {
	tests := []struct {
		testName string // description of this test case
		input    string
		want     ChecksumIndex
		wantLine int
		wantErr  bool
	}{
		{
			testName: "goreleaser output",
			input: "abc123  terraform-provider-awx_1.2.3_linux_amd64.zip\n" +
				"def456  terraform-provider-awx_1.2.3_darwin_arm64.zip\n",
			want: ChecksumIndex{
				"terraform-provider-awx_1.2.3_linux_amd64.zip":  "abc123",
				"terraform-provider-awx_1.2.3_darwin_arm64.zip": "def456",
			},
		},
		{
			testName: "blank lines and tabs",
			input:    "\n  abc123\tfoo_1.0.0_linux_amd64.zip  \n\n",
			want:     ChecksumIndex{"foo_1.0.0_linux_amd64.zip": "abc123"},
		},
		{
			testName: "binary mode marker",
			input:    "abc123 *foo_1.0.0_linux_amd64.zip\n",
			want:     ChecksumIndex{"foo_1.0.0_linux_amd64.zip": "abc123"},
		},
		{
			testName: "missing filename",
			input:    "abc123  a.zip\nabc123\n",
			wantLine: 2,
			wantErr:  true,
		},
		{
			testName: "extra token",
			input:    "abc123  a.zip  trailing\n",
			wantLine: 1,
			wantErr:  true,
		},
		{
			testName: "duplicate filename",
			input:    "abc123  a.zip\ndef456  a.zip\n",
			wantLine: 2,
			wantErr:  true,
		},
		{
			testName: "empty",
			input:    "\n\n",
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			got, gotErr := ParseChecksumIndex(strings.NewReader(tt.input), "SHA256SUMS")
			if gotErr != nil {
				if !tt.wantErr {
					t.Errorf("ParseChecksumIndex() failed: %v", gotErr)
				}
				var parseErr *ParseError
				if !errors.As(gotErr, &parseErr) {
					t.Fatalf("ParseChecksumIndex() error = %T, want *ParseError", gotErr)
				}
				if parseErr.Line != tt.wantLine {
					t.Errorf("ParseError.Line = %d, want %d", parseErr.Line, tt.wantLine)
				}
				return
			}
			if tt.wantErr {
				t.Fatal("ParseChecksumIndex() succeeded unexpectedly")
			}
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("ParseChecksumIndex() mismatch (-want/+got): %v", d)
			}
		})
	}
}

func TestChecksumIndexLookup(t *testing.T) {
	var lines []string
	want := make(map[string]string)
	for _, platform := range []string{"linux_amd64", "linux_arm64", "darwin_amd64", "windows_386"} {
		filename := "terraform-provider-awx_1.2.3_" + platform + ".zip"
		sum := strings.Repeat(platform[:1], 64)
		want[filename] = sum
		lines = append(lines, sum+"  "+filename)
	}

	index, err := ParseChecksumIndex(strings.NewReader(strings.Join(lines, "\n")), "SHA256SUMS")
	if err != nil {
		t.Fatalf("ParseChecksumIndex() failed: %v", err)
	}
	if len(index) != len(lines) {
		t.Errorf("len(index) = %d, want %d", len(index), len(lines))
	}
	for filename, sum := range want {
		got, ok := index.Lookup(filename)
		if !ok || got != sum {
			t.Errorf("Lookup(%q) = (%q, %v), want (%q, true)", filename, got, ok, sum)
		}
	}
	if _, ok := index.Lookup("missing.zip"); ok {
		t.Error("Lookup(missing.zip) found an entry")
	}
}

func TestBuildChecksumIndexMissingFile(t *testing.T) {
	_, err := BuildChecksumIndex(filepath.Join(t.TempDir(), "nope_SHA256SUMS"))

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("BuildChecksumIndex() error = %v, want *ParseError", err)
	}
}

func TestVerifyArchive(t *testing.T) {
	name := filepath.Join(t.TempDir(), "file.zip")
	writeFile(t, name, "hello\n")

	// sha256 of "hello\n"
	const sum = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"

	if err := VerifyArchive(name, sum); err != nil {
		t.Errorf("VerifyArchive() failed: %v", err)
	}
	if err := VerifyArchive(name, strings.ToUpper(sum)); err != nil {
		t.Errorf("VerifyArchive() with upper case sum failed: %v", err)
	}
	if err := VerifyArchive(name, strings.Repeat("0", 64)); err == nil {
		t.Error("VerifyArchive() succeeded unexpectedly")
	}
}
