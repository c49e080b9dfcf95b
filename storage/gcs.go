package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCS stores objects in a Google Cloud Storage bucket. Credentials come from
// the environment (GOOGLE_APPLICATION_CREDENTIALS or the metadata server).
type GCS struct {
	client    *gcs.Client
	bucket    string
	publicURL string
}

func NewGCS(ctx context.Context, bucket, publicURL string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{
		client:    client,
		bucket:    bucket,
		publicURL: publicURLOr(publicURL, "https://storage.googleapis.com/"+bucket),
	}, nil
}

func (g *GCS) Put(ctx context.Context, name, contentType string, r io.Reader, _ int64) (string, error) {
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", name, err)
	}
	return g.publicURL + "/" + name, nil
}

func (g *GCS) Delete(ctx context.Context, name string) error {
	return g.client.Bucket(g.bucket).Object(name).Delete(ctx)
}

func (g *GCS) Close() error {
	return g.client.Close()
}
