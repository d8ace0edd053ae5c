package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileCreatesParentAndReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")
	if err := SafeWriteFile(path, []byte("first")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := SafeWriteFile(path, []byte("second")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("got %q, want %q", b, "second")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestFileStemAndSafeFileName(t *testing.T) {
	tests := []struct {
		in, stem string
	}{
		{"File1.xlsx", "File1"},
		{"/data/run 2/File10.xlsx", "File10"},
		{"noext", "noext"},
		{"archive.tar.gz", "archive.tar"},
	}
	for _, tt := range tests {
		if got := FileStem(tt.in); got != tt.stem {
			t.Errorf("FileStem(%q) = %q, want %q", tt.in, got, tt.stem)
		}
	}
	if got := SafeFileName("Plate A_vs_Plate B_GFP_Cross.png"); got != "Plate_A_vs_Plate_B_GFP_Cross.png" {
		t.Errorf("SafeFileName = %q", got)
	}
}
