// Package storage keeps report photos in an object store and hands back the
// public URL each photo is served from.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"qrtrack/config"
)

type Bucket interface {
	// Put stores size bytes from r under name and returns the public URL.
	Put(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, name string) error
}

// New builds the bucket selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Bucket, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.LocalDir, publicURLOr(cfg.PublicURL, "/uploads")), nil
	case "gcs":
		return NewGCS(ctx, cfg.Bucket, cfg.PublicURL)
	case "minio", "s3":
		return NewMinIO(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// ObjectName returns a collision-free name for a photo of a report.
func ObjectName(reportID uint, filename string) string {
	return fmt.Sprintf("reports/%d/%s-%s", reportID, uuid.NewString(), SanitizeFilename(filename))
}

// SanitizeFilename keeps the base name and replaces characters that are
// unsafe in object keys and URLs.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "photo"
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func publicURLOr(configured, fallback string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	return fallback
}
