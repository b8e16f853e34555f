// File path: internal/blob/blob.go
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/GH-TeamBID/gober-api/internal/common"
)

// Config holds S3-compatible object storage settings. Converted Markdown
// artifacts and generated summary documents are persisted here.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LoadConfig reads settings from the environment.
func LoadConfig() Config {
	return Config{
		Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		Bucket:    strings.TrimSpace(os.Getenv("S3_BUCKET")),
		UseSSL:    strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_SSL")), "true"),
	}
}

// Enabled reports whether object storage has been configured at all.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// Store wraps one bucket of an S3-compatible object store.
type Store struct {
	client *minio.Client
	bucket string
}

// NewFromEnv loads configuration and constructs a store. A nil store with
// nil error means object storage is not configured.
func NewFromEnv(ctx context.Context) (*Store, error) {
	cfg := LoadConfig()
	if !cfg.Enabled() {
		return nil, nil
	}
	return New(ctx, cfg)
}

// New constructs a store and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if !cfg.Enabled() {
		return nil, errors.New("object storage not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	store := &Store{client: client, bucket: cfg.Bucket}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		common.Logger().Warn("blob: bucket check failed", "bucket", cfg.Bucket, "error", err)
		return store, nil
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}
	common.Logger().Info("blob: object storage ready", "bucket", cfg.Bucket)
	return store, nil
}

// Upload streams an object under the given key.
func (s *Store) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if s == nil {
		return errors.New("object storage not configured")
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Download opens an object for reading. The caller owns the returned reader.
func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if s == nil {
		return nil, errors.New("object storage not configured")
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return obj, nil
}

// PresignedURL returns a time-limited GET URL for sharing an object.
func (s *Store) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if s == nil {
		return "", errors.New("object storage not configured")
	}
	if expiry <= 0 {
		expiry = time.Hour
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
