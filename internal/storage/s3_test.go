package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

type fakeUploader struct {
	s3manageriface.UploaderAPI

	lastInput *s3manager.UploadInput
	err       error
}

func (f *fakeUploader) UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &s3manager.UploadOutput{}, nil
}

func TestPut(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{}
	store := NewWithUploader(uploader, "pixelsmith-images")

	data := []byte("fake png bytes")
	url, err := store.Put(context.Background(), "user-1", data, "image/png")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if !strings.HasPrefix(url, "https://pixelsmith-images.s3.amazonaws.com/user-1/") {
		t.Errorf("url = %q, want bucket-hosted key under user-1/", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q, want .png extension", url)
	}

	if uploader.lastInput == nil {
		t.Fatal("uploader was not called")
	}
	if aws.StringValue(uploader.lastInput.Bucket) != "pixelsmith-images" {
		t.Errorf("Bucket = %q", aws.StringValue(uploader.lastInput.Bucket))
	}
	if aws.StringValue(uploader.lastInput.ContentType) != "image/png" {
		t.Errorf("ContentType = %q", aws.StringValue(uploader.lastInput.ContentType))
	}

	uploaded, err := io.ReadAll(uploader.lastInput.Body)
	if err != nil {
		t.Fatalf("failed to read upload body: %v", err)
	}
	if string(uploaded) != string(data) {
		t.Error("uploaded body does not match input data")
	}
}

func TestPut_UploadError(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{err: errors.New("access denied")}
	store := NewWithUploader(uploader, "bucket")

	_, err := store.Put(context.Background(), "user-1", []byte("data"), "image/png")
	if err == nil {
		t.Fatal("expected error from failed upload")
	}
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 123456789)

	tests := []struct {
		name        string
		contentType string
		wantSuffix  string
	}{
		{"png", "image/png", ".png"},
		{"jpeg", "image/jpeg", ".jpg"},
		{"webp", "image/webp", ".webp"},
		{"gif", "image/gif", ".gif"},
		{"unknown", "application/octet-stream", ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			key := objectKey("user-9", tt.contentType, now)
			if !strings.HasPrefix(key, "user-9/") {
				t.Errorf("key = %q, want user-9/ prefix", key)
			}
			if !strings.HasSuffix(key, tt.wantSuffix) {
				t.Errorf("key = %q, want %s suffix", key, tt.wantSuffix)
			}
		})
	}
}

func TestObjectKey_Unique(t *testing.T) {
	t.Parallel()

	k1 := objectKey("u", "image/png", time.Unix(1, 1))
	k2 := objectKey("u", "image/png", time.Unix(1, 2))
	if k1 == k2 {
		t.Error("keys for different timestamps should differ")
	}
}
