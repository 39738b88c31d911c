package main

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeZip(t *testing.T, name string, files map[string]string) {
	t.Helper()

	out, err := os.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = out.Close()
	}()

	zw := zip.NewWriter(out)
	for fname, content := range files {
		w, err := zw.Create(fname)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestInspectArchive(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		testName string // description of this test case
		files    map[string]string
		prefix   string
		want     string
		wantErr  bool
	}{
		{
			testName: "provider binary at top level",
			files: map[string]string{
				"README.md":                     "docs",
				"terraform-provider-awx_v1.2.3": "binary",
			},
			prefix: "terraform-provider-awx",
			want:   "terraform-provider-awx_v1.2.3",
		},
		{
			testName: "windows binary in sub directory",
			files: map[string]string{
				"bin/terraform-provider-awx_v1.2.3.exe": "binary",
			},
			prefix: "terraform-provider-awx",
			want:   "bin/terraform-provider-awx_v1.2.3.exe",
		},
		{
			testName: "binary of another provider",
			files: map[string]string{
				"terraform-provider-aws_v5.0.0": "binary",
			},
			prefix:  "terraform-provider-awx",
			wantErr: true,
		},
	}
	for i, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			name := filepath.Join(dir, string(rune('a'+i))+".zip")
			writeZip(t, name, tt.files)

			got, gotErr := InspectArchive(name, tt.prefix)
			if gotErr != nil {
				if !tt.wantErr {
					t.Errorf("InspectArchive() failed: %v", gotErr)
				}
				return
			}
			if tt.wantErr {
				t.Fatal("InspectArchive() succeeded unexpectedly")
			}
			if got != tt.want {
				t.Errorf("InspectArchive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInspectArchiveNotAZip(t *testing.T) {
	name := filepath.Join(t.TempDir(), "broken.zip")
	writeFile(t, name, "definitely not a zip")

	if _, err := InspectArchive(name, "terraform-provider-awx"); err == nil {
		t.Fatal("InspectArchive() succeeded unexpectedly")
	}
}
