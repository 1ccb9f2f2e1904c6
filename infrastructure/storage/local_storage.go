package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
)

// LocalStorage implements StoragePort สำหรับเก็บไฟล์ใน local filesystem
// ไฟล์ถูก serve ผ่าน /files ของ API เอง
type LocalStorage struct {
	basePath string // เส้นทางหลักที่เก็บไฟล์ (เช่น ./uploads)
	baseURL  string // URL สำหรับเข้าถึงไฟล์ (เช่น http://localhost:8080/files)
}

type LocalStorageConfig struct {
	BasePath string
	BaseURL  string
}

// NewLocalStorage สร้าง LocalStorage instance
func NewLocalStorage(config LocalStorageConfig) (*LocalStorage, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: config.BasePath,
		baseURL:  strings.TrimSuffix(config.BaseURL, "/"),
	}, nil
}

var _ ports.StoragePort = (*LocalStorage)(nil)

// fullPath กัน path traversal ออกนอก basePath
func (l *LocalStorage) fullPath(path string) (string, error) {
	path = normalizeKey(path)
	full := filepath.Join(l.basePath, filepath.FromSlash(path))

	absBase, err := filepath.Abs(l.basePath)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", path)
	}
	return full, nil
}

// UploadFile อัปโหลดไฟล์ไปยัง local filesystem
func (l *LocalStorage) UploadFile(file io.Reader, path string, contentType string) (string, error) {
	fullPath, err := l.fullPath(path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	// เขียนไฟล์ชั่วคราวแล้ว rename ให้ reader ไม่เห็นไฟล์ครึ่งๆ
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move file: %w", err)
	}

	return l.GetFileURL(path), nil
}

// DeleteFolder ลบ folder ทั้งหมดจาก local filesystem
func (l *LocalStorage) DeleteFolder(prefix string) error {
	fullPath, err := l.fullPath(prefix)
	if err != nil {
		return err
	}

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	if err := os.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	l.cleanupEmptyDirs(filepath.Dir(fullPath))
	return nil
}

// GetFileURL สร้าง URL สำหรับเข้าถึงไฟล์
func (l *LocalStorage) GetFileURL(path string) string {
	return l.baseURL + "/" + normalizeKey(path)
}

func (l *LocalStorage) GetProviderName() string {
	return "local"
}

// cleanupEmptyDirs ลบ directory ว่างๆ ขึ้นไปจนถึง basePath
func (l *LocalStorage) cleanupEmptyDirs(dir string) {
	absBase, _ := filepath.Abs(l.basePath)
	absDir, _ := filepath.Abs(dir)

	for absDir != absBase && strings.HasPrefix(absDir, absBase) {
		entries, err := os.ReadDir(absDir)
		if err != nil || len(entries) > 0 {
			break
		}
		os.Remove(absDir)
		absDir = filepath.Dir(absDir)
	}
}

// normalizeKey object key แบบ forward slash ไม่มี / นำหน้า
func normalizeKey(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(path, "/")
}
