// Package storage persists generated images in S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// Config holds S3 connection settings.
type Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Store uploads image blobs to an S3 bucket and returns public URLs.
type Store struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
}

// New creates a Store backed by a real S3 session.
func New(cfg Config) (*Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &Store{
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
	}, nil
}

// NewWithUploader creates a Store with a custom uploader. Used in tests.
func NewWithUploader(uploader s3manageriface.UploaderAPI, bucket string) *Store {
	return &Store{uploader: uploader, bucket: bucket}
}

// Put uploads image bytes under a per-user key and returns the public URL.
func (s *Store) Put(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	key := objectKey(userID, contentType, time.Now())

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key), nil
}

// objectKey builds a collision-resistant per-user key with an extension
// matching the content type.
func objectKey(userID, contentType string, now time.Time) string {
	return fmt.Sprintf("%s/%d%s", userID, now.UnixNano(), extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
