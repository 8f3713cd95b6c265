package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ChrisThompsonK/team2-job-app-backend/internal/config"
)

// StorageService handles S3/MinIO operations for CV file storage
type StorageService struct {
	client             *s3.Client
	presignClient      *s3.PresignClient
	bucket             string
	presignedURLExpiry time.Duration
}

// NewStorageService creates a new storage service with S3/MinIO client
func NewStorageService(cfg *config.StorageConfig) (*StorageService, error) {
	// Build endpoint URL - handle case where endpoint already includes protocol
	var endpointURL string
	if strings.HasPrefix(cfg.Endpoint, "http://") || strings.HasPrefix(cfg.Endpoint, "https://") {
		endpointURL = cfg.Endpoint
	} else {
		protocol := "http"
		if cfg.UseSSL {
			protocol = "https"
		}
		endpointURL = protocol + "://" + cfg.Endpoint
	}

	client := s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		BaseEndpoint: aws.String(endpointURL),
		UsePathStyle: true, // Required for MinIO
	})

	presignedURLExpiry := cfg.PresignedURLExpiry
	if presignedURLExpiry == 0 {
		presignedURLExpiry = 15 * time.Minute
	}

	return &StorageService{
		client:             client,
		presignClient:      s3.NewPresignClient(client),
		bucket:             cfg.Bucket,
		presignedURLExpiry: presignedURLExpiry,
	}, nil
}

// UploadCV stores a CV file and returns its storage key. The key is a
// random UUID so original filenames never reach the object store.
func (s *StorageService) UploadCV(ctx context.Context, content []byte, contentType string) (string, error) {
	key := fmt.Sprintf("cvs/%s", uuid.NewString())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(content))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload CV: %w", err)
	}

	return key, nil
}

// GetPresignedURL generates a time-limited download URL for a stored CV
func (s *StorageService) GetPresignedURL(ctx context.Context, key string) (string, time.Duration, error) {
	presignedReq, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignedURLExpiry))
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignedReq.URL, s.presignedURLExpiry, nil
}

// DeleteObject deletes a single object from storage
func (s *StorageService) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
