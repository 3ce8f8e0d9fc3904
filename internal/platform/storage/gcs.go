package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcsstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type gcsBucketService struct {
	log       *logger.Logger
	client    *gcsstorage.Client
	bucket    string
	cdnDomain string
}

func NewGCSBucketService(ctx context.Context, log *logger.Logger, cfg Config) (BucketService, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}
	opts := []option.ClientOption{option.WithScopes(gcsstorage.ScopeReadWrite)}
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		if strings.HasPrefix(creds, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
		} else {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
	}
	client, err := gcsstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "GCSBucketService")
	serviceLog.Info("Object storage initialized", "mode", ModeGCS, "bucket", cfg.BucketName, "cdn_domain", cfg.CDNDomain)
	return &gcsBucketService{
		log:       serviceLog,
		client:    client,
		bucket:    cfg.BucketName,
		cdnDomain: strings.TrimSpace(cfg.CDNDomain),
	}, nil
}

func (bs *gcsBucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.client.Bucket(bs.bucket).Object(objectKey(category, key)).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *gcsBucketService) DeleteFile(ctx context.Context, category BucketCategory, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := bs.client.Bucket(bs.bucket).Object(objectKey(category, key)).Delete(ctx)
	if err != nil && !errors.Is(err, gcsstorage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bs.bucket, err)
	}
	return nil
}

func (bs *gcsBucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	r, err := bs.client.Bucket(bs.bucket).Object(objectKey(category, key)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %q: %w", key, err)
	}
	return r, nil
}

func (bs *gcsBucketService) GetPublicURL(category BucketCategory, key string) string {
	if bs.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cdnDomain, objectKey(category, key))
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucket, objectKey(category, key))
}
