// Package storage puts certificate PDFs and post media into an object store
// and hands out public or presigned URLs for them.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/config"
)

// ObjectStore is the subset of bucket operations the services rely on.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
	// PublicURL is derived from configuration, never from an upload response.
	PublicURL(key string) string
}

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "", "s3":
		return NewS3Store(ctx, cfg)
	case "minio":
		return NewMinIOStore(ctx, cfg)
	case "memory":
		return NewMemoryStore(publicBase(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q: %w", cfg.Driver, apperr.ErrInvalid)
	}
}

// publicBase picks STORAGE_PUBLIC_URL when set, otherwise the
// virtual-hosted S3 URL or <endpoint>/<bucket> for path-style stores.
func publicBase(cfg config.StorageConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	switch cfg.Driver {
	case "", "s3":
		if cfg.Endpoint == "" {
			return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	case "memory":
		return "memory://" + cfg.Bucket
	}
	ep := strings.TrimRight(cfg.Endpoint, "/")
	if !strings.Contains(ep, "://") {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		ep = scheme + ep
	}
	return ep + "/" + cfg.Bucket
}

func joinURL(base, key string) string {
	return base + "/" + strings.TrimLeft(key, "/")
}
