package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStorage(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStorage(LocalStorageConfig{BasePath: dir, BaseURL: "http://localhost:8080/files/"})
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return s, dir
}

func TestLocalStorage_UploadFile(t *testing.T) {
	s, dir := newTestStorage(t)

	url, err := s.UploadFile(strings.NewReader("video-bytes"), "/runs/abc/final.mp4", "video/mp4")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if url != "http://localhost:8080/files/runs/abc/final.mp4" {
		t.Errorf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "runs", "abc", "final.mp4"))
	if err != nil {
		t.Fatalf("read uploaded file: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, _ := newTestStorage(t)

	if _, err := s.UploadFile(strings.NewReader("x"), "../outside.txt", "text/plain"); err == nil {
		t.Fatal("expected error for path outside storage root")
	}
	if err := s.DeleteFolder("../../"); err == nil {
		t.Fatal("expected error deleting outside storage root")
	}
}

func TestLocalStorage_DeleteFolder(t *testing.T) {
	s, dir := newTestStorage(t)

	for _, p := range []string{"runs/abc/final.mp4", "runs/abc/thumb.jpg", "runs/xyz/final.mp4"} {
		if _, err := s.UploadFile(strings.NewReader("x"), p, "application/octet-stream"); err != nil {
			t.Fatalf("UploadFile %s: %v", p, err)
		}
	}

	if err := s.DeleteFolder("runs/abc/"); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "runs", "abc")); !os.IsNotExist(err) {
		t.Errorf("runs/abc still exists: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "runs", "xyz", "final.mp4")); err != nil {
		t.Errorf("sibling run removed: %v", err)
	}

	// ลบซ้ำต้องไม่ error
	if err := s.DeleteFolder("runs/abc/"); err != nil {
		t.Errorf("second DeleteFolder: %v", err)
	}
}

func TestLocalStorage_DeleteFolderCleansEmptyParents(t *testing.T) {
	s, dir := newTestStorage(t)

	if _, err := s.UploadFile(strings.NewReader("x"), "runs/abc/final.mp4", "video/mp4"); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if err := s.DeleteFolder("runs/abc"); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "runs")); !os.IsNotExist(err) {
		t.Errorf("empty parent dir kept: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("storage root removed: %v", err)
	}
}
