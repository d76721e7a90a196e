package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// ErrNotConfigured is returned by the upload helpers before Init succeeded.
var ErrNotConfigured = errors.New("object storage not configured")

var Client *minio.Client
var BucketName string

// Config holds the MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Init(ctx context.Context, cfg Config) error {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return ErrNotConfigured
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "gastos"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Verify bucket exists
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", bucket)
	}

	Client = client
	BucketName = bucket
	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", bucket).Msg("MinIO storage initialized")
	return nil
}

// Available reports whether Init succeeded.
func Available() bool {
	return Client != nil
}

// ExpenseObjectName returns the object key for an uploaded expense PDF.
// Path format: expenses/YYYY/MM/YYYYMMDD_HHMMSS_{uuid8}.pdf
func ExpenseObjectName(now time.Time, id uuid.UUID) string {
	return fmt.Sprintf("expenses/%d/%02d/%s_%s.pdf",
		now.Year(),
		now.Month(),
		now.Format("20060102_150405"),
		strings.ReplaceAll(id.String(), "-", "")[:8],
	)
}

// UploadExpensePDF stores a source PDF and returns its bucket-qualified path
func UploadExpensePDF(ctx context.Context, reader io.Reader, size int64) (string, error) {
	if Client == nil {
		return "", ErrNotConfigured
	}

	objectName := ExpenseObjectName(time.Now(), uuid.New())
	_, err := Client.PutObject(ctx, BucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload PDF: %w", err)
	}

	log.Debug().Str("object", objectName).Int64("size", size).Msg("Stored expense PDF")

	// Return the full path for storage in DB
	return fmt.Sprintf("%s/%s", BucketName, objectName), nil
}

// objectName strips the bucket prefix from a stored path
func objectName(objectPath string) string {
	return strings.TrimPrefix(objectPath, BucketName+"/")
}

// GetPresignedURL generates a presigned URL for downloading a stored PDF
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	if Client == nil {
		return "", ErrNotConfigured
	}

	url, err := Client.PresignedGetObject(ctx, BucketName, objectName(objectPath), 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteObject removes a stored PDF
func DeleteObject(ctx context.Context, objectPath string) error {
	if Client == nil {
		return ErrNotConfigured
	}
	return Client.RemoveObject(ctx, BucketName, objectName(objectPath), minio.RemoveObjectOptions{})
}
