package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type localBucketService struct {
	log     *logger.Logger
	root    string
	baseURL string
}

// NewLocalBucketService writes objects below dir. Files are served by the router under
// PublicBaseURL.
func NewLocalBucketService(log *logger.Logger, cfg Config) (BucketService, error) {
	root := strings.TrimSpace(cfg.LocalDir)
	if root == "" {
		root = "./media"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = "/media"
	}
	return &localBucketService{
		log:     log.With("service", "LocalBucketService"),
		root:    root,
		baseURL: base,
	}, nil
}

func (bs *localBucketService) pathFor(category BucketCategory, key string) (string, error) {
	rel := filepath.FromSlash(objectKey(category, key))
	full := filepath.Join(bs.root, rel)
	if !strings.HasPrefix(full, filepath.Clean(bs.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return full, nil
}

func (bs *localBucketService) UploadFile(_ context.Context, category BucketCategory, key string, file io.Reader) error {
	full, err := bs.pathFor(category, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(f, file); err != nil {
		_ = f.Close()
		return fmt.Errorf("write object: %w", err)
	}
	return f.Close()
}

func (bs *localBucketService) DeleteFile(_ context.Context, category BucketCategory, key string) error {
	full, err := bs.pathFor(category, key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (bs *localBucketService) DownloadFile(_ context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	full, err := bs.pathFor(category, key)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (bs *localBucketService) GetPublicURL(category BucketCategory, key string) string {
	return bs.baseURL + "/" + objectKey(category, key)
}
