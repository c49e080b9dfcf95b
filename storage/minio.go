package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"qrtrack/config"
)

// MinIO stores objects in any S3-compatible bucket.
type MinIO struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinIO(cfg config.StorageConfig) (*MinIO, error) {
	if cfg.MinIOEndpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	scheme := "http"
	if cfg.MinIOUseSSL {
		scheme = "https"
	}
	return &MinIO{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURLOr(cfg.PublicURL, fmt.Sprintf("%s://%s/%s", scheme, cfg.MinIOEndpoint, cfg.Bucket)),
	}, nil
}

func (m *MinIO) Put(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return m.publicURL + "/" + name, nil
}

func (m *MinIO) Delete(ctx context.Context, name string) error {
	return m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{})
}
