package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureFreeSpace(t *testing.T) {
	dir := t.TempDir()

	if info, err := EnsureFreeSpace(dir, 0); err != nil || info != nil {
		t.Fatalf("disabled check: info=%v err=%v", info, err)
	}

	if _, err := EnsureFreeSpace(dir, 1e9); err == nil {
		t.Fatal("expected insufficient space error")
	} else {
		var dse *DiskSpaceError
		if !errors.As(err, &dse) {
			t.Fatalf("error type = %T", err)
		}
		if dse.Path != dir || dse.Available >= dse.Required {
			t.Errorf("unexpected error fields %+v", dse)
		}
	}
}

func TestGetDirectorySize(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "scenes"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]int{
		"final.mp4":          100,
		"scenes/scene_0.mp4": 40,
		"scenes/scene_1.mp4": 60,
	}
	for name, size := range files {
		if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := GetDirectorySize(dir)
	if err != nil {
		t.Fatalf("GetDirectorySize() error = %v", err)
	}
	if got != 200 {
		t.Errorf("GetDirectorySize() = %d, want 200", got)
	}
}
