package ports

import "io"

// StoragePort คือ interface หลักสำหรับ storage (Local, S3/MinIO, R2)
type StoragePort interface {
	// UploadFile อัปโหลดไฟล์ไปยัง storage
	// path: เส้นทางที่จะเก็บไฟล์ (เช่น "runs/<id>/final.mp4")
	// return: URL ที่เข้าถึงไฟล์ได้
	UploadFile(file io.Reader, path string, contentType string) (string, error)

	// DeleteFolder ลบไฟล์ทั้งหมดใน prefix
	DeleteFolder(prefix string) error

	// GetFileURL รับ URL สำหรับเข้าถึงไฟล์
	GetFileURL(path string) string

	// GetProviderName ชื่อ provider (local, s3, r2)
	GetProviderName() string
}
