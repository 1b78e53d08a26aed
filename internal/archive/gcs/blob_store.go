// Package gcs provides an archive.BlobStore backed by Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// BlobStore writes raw payloads to a GCS bucket. The writer's Close finalizes
// the upload, so a returned URI means the object is visible.
type BlobStore struct {
	client *storage.Client
	bucket string
}

// New creates a GCS client (Application Default Credentials) and verifies the
// bucket exists before any run-time write can fail on configuration.
func New(ctx context.Context, bucket string) (*BlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if cerr := client.Close(); cerr != nil {
			return nil, fmt.Errorf("bucket %q attrs: %w (close client: %v)", bucket, err, cerr)
		}
		return nil, fmt.Errorf("bucket %q attrs: %w", bucket, err)
	}
	return &BlobStore{client: client, bucket: bucket}, nil
}

// PutObject uploads data to the bucket and returns a gs:// URI.
func (s *BlobStore) PutObject(ctx context.Context, objectPath string, contentType string, r io.Reader) (string, error) {
	if strings.TrimSpace(objectPath) == "" {
		return "", fmt.Errorf("object path is required")
	}
	writer := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, r); err != nil {
		if cerr := writer.Close(); cerr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, cerr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, objectPath), nil
}

// Close releases the underlying client.
func (s *BlobStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close gcs client: %w", err)
	}
	return nil
}
