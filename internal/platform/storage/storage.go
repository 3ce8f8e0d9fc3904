package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

type BucketCategory string

const (
	BucketCategoryProduct BucketCategory = "product"
	BucketCategoryPet     BucketCategory = "pet"
)

// BucketService stores public media (product images, pet photos).
type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error
	DeleteFile(ctx context.Context, category BucketCategory, key string) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	GetPublicURL(category BucketCategory, key string) string
}

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCS   Mode = "gcs"
)

type Config struct {
	Mode          Mode
	LocalDir      string
	PublicBaseURL string
	BucketName    string
	CDNDomain     string
	// CredentialsJSON is either inline JSON or a path to a credentials file.
	CredentialsJSON string
}

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeLocal:
		return ModeLocal, nil
	case ModeGCS:
		return ModeGCS, nil
	default:
		return "", fmt.Errorf("unknown storage mode %q", raw)
	}
}

func objectKey(category BucketCategory, key string) string {
	return string(category) + "/" + strings.TrimLeft(strings.TrimSpace(key), "/")
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	default:
		return ""
	}
}
