package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
)

// R2Storage implements StoragePort บน Cloudflare R2 ผ่าน aws-sdk-go-v2
type R2Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
	logger    *slog.Logger
}

type R2StorageConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

func NewR2Storage(cfg R2StorageConfig) (*R2Storage, error) {
	if cfg.AccountID == "" || cfg.Bucket == "" {
		return nil, errors.New("r2 account id and bucket are required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		logger:    slog.Default().With("component", "r2_storage"),
	}, nil
}

var _ ports.StoragePort = (*R2Storage)(nil)

// UploadFile ส่ง *os.File ตรงๆ ได้ (seekable) ส่วน reader อื่นจะถูกอ่านเข้า memory ก่อน
func (r *R2Storage) UploadFile(file io.Reader, path string, contentType string) (string, error) {
	ctx := context.Background()
	path = normalizeKey(path)

	body, ok := file.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(file)
		if err != nil {
			return "", fmt.Errorf("failed to read data: %w", err)
		}
		body = bytes.NewReader(data)
	}

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	r.logger.Info("File uploaded", "path", path)
	return r.GetFileURL(path), nil
}

// DeleteFolder ลบทุก object ใต้ prefix ทีละ 1000 key
func (r *R2Storage) DeleteFolder(prefix string) error {
	ctx := context.Background()
	prefix = normalizeKey(prefix)
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})

	deleted := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}
		out, err := r.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(r.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			return fmt.Errorf("failed to delete %d object(s) under %s", len(out.Errors), prefix)
		}
		deleted += len(ids)
	}

	r.logger.Info("Folder deleted", "prefix", prefix, "deleted", deleted)
	return nil
}

func (r *R2Storage) GetFileURL(path string) string {
	return r.publicURL + "/" + normalizeKey(path)
}

func (r *R2Storage) GetProviderName() string {
	return "r2"
}
