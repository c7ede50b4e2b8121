/*
Package storage provides pre-signed URL generation for file attachments
shared in meeting rooms. Clients upload directly to the bucket; the server
only brokers access.
*/
package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the settings required to reach the storage backend.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// PresignUpload generates a time-limited URL for uploading a file.
	PresignUpload(ctx context.Context, key string, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// PresignDownload generates a time-limited URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the file stored under the given key.
	Delete(ctx context.Context, key string) error
}

// NewStorageService initializes a StorageService for the configured backend.
// Only S3-compatible storage is supported.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	return newS3Client(cfg)
}
