package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/storage"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/config"
)

// setup-bucket เตรียม bucket สำหรับ STORAGE_TYPE=s3
// - สร้าง bucket ถ้ายังไม่มี
// - public read เฉพาะ runs/* (final video + thumbnail)
// - ทดสอบสิทธิ์ put/list/delete
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	s3 := cfg.Storage.S3

	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("  Bucket Setup for Run Outputs")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("\nEndpoint: %s\n", s3.Endpoint)
	fmt.Printf("Bucket: %s\n", s3.Bucket)
	fmt.Printf("Region: %s\n", s3.Region)

	client, err := storage.NewMinioClient(storage.S3StorageConfig{
		Endpoint:  s3.Endpoint,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		Bucket:    s3.Bucket,
		UseSSL:    s3.UseSSL,
		Region:    s3.Region,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, s3.Bucket)
	if err != nil {
		log.Fatalf("Failed to check bucket: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s3.Bucket, minio.MakeBucketOptions{Region: s3.Region}); err != nil {
			log.Fatalf("Failed to create bucket '%s': %v", s3.Bucket, err)
		}
		fmt.Printf("\n✓ Bucket '%s' created\n", s3.Bucket)
	} else {
		fmt.Printf("\n✓ Bucket '%s' exists\n", s3.Bucket)
	}

	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Sid":       "PublicReadRuns",
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{fmt.Sprintf("arn:aws:s3:::%s/runs/*", s3.Bucket)},
			},
		},
	}
	policyJSON, _ := json.MarshalIndent(policy, "", "  ")

	fmt.Println("\n--- Setting Bucket Policy ---")
	fmt.Println(string(policyJSON))

	if err := client.SetBucketPolicy(ctx, s3.Bucket, string(policyJSON)); err != nil {
		log.Printf("⚠️  Warning: Failed to set policy: %v", err)
	} else {
		fmt.Println("\n✓ Bucket policy set successfully")
	}

	fmt.Println("\n--- Testing Basic Operations ---")

	fmt.Print("Testing PutObject... ")
	testKey := "runs/_setup/permission-check.txt"
	content := []byte("permission check")
	_, err = client.PutObject(ctx, s3.Bucket, testKey, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		fmt.Printf("❌ Failed: %v\n", err)
	} else {
		fmt.Println("✓ OK")
	}

	fmt.Print("Testing ListObjects... ")
	listOK := true
	for obj := range client.ListObjects(ctx, s3.Bucket, minio.ListObjectsOptions{Prefix: "runs/_setup/", Recursive: true}) {
		if obj.Err != nil {
			fmt.Printf("❌ Failed: %v\n", obj.Err)
			listOK = false
			break
		}
	}
	if listOK {
		fmt.Println("✓ OK")
	}

	// regenerate ต้องลบ runs/<id>/ ได้
	fmt.Print("Testing RemoveObject... ")
	if err := client.RemoveObject(ctx, s3.Bucket, testKey, minio.RemoveObjectOptions{}); err != nil {
		fmt.Printf("❌ Failed: %v\n", err)
	} else {
		fmt.Println("✓ OK")
	}

	fmt.Println("\n═══════════════════════════════════════════════════════════════")
	fmt.Println("  Setup Complete!")
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
