package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// S3Storage implements StoragePort สำหรับ S3-Compatible Storage (MinIO)
type S3Storage struct {
	client    *minio.Client
	bucket    string
	publicURL string
	endpoint  string
	useSSL    bool
}

type S3StorageConfig struct {
	Endpoint  string // minio:9000
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	PublicURL string // URL สำหรับเข้าถึงไฟล์ public (optional)
}

// NewMinioClient ใช้ร่วมกับ cmd/setup-bucket
func NewMinioClient(config S3StorageConfig) (*minio.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure:    config.UseSSL,
		Region:    config.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return client, nil
}

// NewS3Storage สร้าง S3Storage instance (สร้าง bucket ถ้ายังไม่มี)
func NewS3Storage(config S3StorageConfig) (*S3Storage, error) {
	client, err := NewMinioClient(config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, config.Bucket, minio.MakeBucketOptions{
			Region: config.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("S3 bucket created", "bucket", config.Bucket)
	}

	logger.Info("S3 storage initialized",
		"endpoint", config.Endpoint,
		"bucket", config.Bucket,
		"ssl", config.UseSSL,
	)

	return &S3Storage{
		client:    client,
		bucket:    config.Bucket,
		publicURL: strings.TrimSuffix(config.PublicURL, "/"),
		endpoint:  config.Endpoint,
		useSSL:    config.UseSSL,
	}, nil
}

var _ ports.StoragePort = (*S3Storage)(nil)

// UploadFile อัปโหลดไฟล์ไปยัง S3 (size -1 = streaming multipart)
func (s *S3Storage) UploadFile(file io.Reader, path string, contentType string) (string, error) {
	ctx := context.Background()
	path = normalizeKey(path)

	info, err := s.client.PutObject(ctx, s.bucket, path, file, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	logger.Debug("File uploaded to S3", "path", path, "size", info.Size, "content_type", contentType)
	return s.GetFileURL(path), nil
}

// DeleteFolder ลบไฟล์ทั้งหมดใน prefix
func (s *S3Storage) DeleteFolder(prefix string) error {
	ctx := context.Background()

	prefix = normalizeKey(prefix)
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	objectsCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	// RemoveObjects ลบเป็น batch
	removeCh := make(chan minio.ObjectInfo)
	listErr := make(chan error, 1)
	go func() {
		defer close(removeCh)
		for obj := range objectsCh {
			if obj.Err != nil {
				listErr <- obj.Err
				return
			}
			removeCh <- obj
		}
		listErr <- nil
	}()

	failed := 0
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, removeCh, minio.RemoveObjectsOptions{}) {
		failed++
		logger.Warn("Failed to delete object", "key", rerr.ObjectName, "error", rerr.Err)
	}
	if err := <-listErr; err != nil {
		return fmt.Errorf("failed to list objects: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("failed to delete %d object(s) under %s", failed, prefix)
	}

	logger.Info("Folder deleted from S3", "prefix", prefix)
	return nil
}

// GetFileURL public URL ถ้าตั้งไว้ ไม่งั้นใช้ path-style ของ endpoint
func (s *S3Storage) GetFileURL(path string) string {
	path = normalizeKey(path)
	if s.publicURL != "" {
		return s.publicURL + "/" + path
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, path)
}

func (s *S3Storage) GetProviderName() string {
	return "s3"
}
