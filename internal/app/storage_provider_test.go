package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/platform/storage"
)

func TestClassifyStorageProviderBootstrapErrorKeepsClassified(t *testing.T) {
	src := &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorMissingBucketName, Mode: "gcs"}

	err := classifyStorageProviderBootstrapError(storage.Config{Mode: storage.ModeGCS}, src)

	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
	}
	if got.Code != StorageProviderBootstrapErrorMissingBucketName {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorMissingBucketName, got.Code)
	}
}

func TestClassifyStorageProviderBootstrapErrorConnectFailed(t *testing.T) {
	sc := storage.Config{Mode: storage.ModeGCS, BucketName: "paw-media"}
	srcErr := errors.New("dial tcp: connection refused")

	err := classifyStorageProviderBootstrapError(sc, srcErr)

	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
	}
	if got.Code != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorConnectFailed, got.Code)
	}
	if got.Target != "paw-media" {
		t.Fatalf("target: want=%q got=%q", "paw-media", got.Target)
	}
	if !errors.Is(err, srcErr) {
		t.Fatalf("expected cause to unwrap")
	}
}

func TestResolveBucketServiceInvalidMode(t *testing.T) {
	_, _, err := resolveBucketService(context.Background(), logger.NewNop(), Config{
		Storage: StorageConfig{Mode: "s3"},
	})
	if err == nil {
		t.Fatalf("resolveBucketService: expected error, got nil")
	}
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidMode, code)
	}
}

func TestResolveBucketServiceLocalMode(t *testing.T) {
	dir := t.TempDir()
	bucket, sc, err := resolveBucketService(context.Background(), logger.NewNop(), Config{
		Storage: StorageConfig{Mode: "LOCAL", LocalDir: dir, PublicBaseURL: "/media"},
	})
	if err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if sc.Mode != storage.ModeLocal || sc.LocalDir != dir {
		t.Fatalf("config: got mode=%q dir=%q", sc.Mode, sc.LocalDir)
	}
	if got := bucket.GetPublicURL(storage.BucketCategoryPet, "a.png"); got != "/media/pet/a.png" {
		t.Fatalf("public url: got=%q", got)
	}
}

func TestResolveBucketServiceGCSMode(t *testing.T) {
	orig := newGCSBucketService
	t.Cleanup(func() { newGCSBucketService = orig })

	var captured storage.Config
	expected := &testBucketService{}
	newGCSBucketService = func(_ context.Context, _ *logger.Logger, cfg storage.Config) (storage.BucketService, error) {
		captured = cfg
		return expected, nil
	}

	got, _, err := resolveBucketService(context.Background(), logger.NewNop(), Config{
		Storage: StorageConfig{Mode: "gcs", BucketName: " paw-media ", CDNDomain: "cdn.example"},
	})
	if err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if got != expected {
		t.Fatalf("bucket: expected stub bucket instance")
	}
	if captured.Mode != storage.ModeGCS || captured.BucketName != "paw-media" || captured.CDNDomain != "cdn.example" {
		t.Fatalf("captured config: %+v", captured)
	}
}

func TestResolveBucketServiceMissingBucketName(t *testing.T) {
	orig := newGCSBucketService
	t.Cleanup(func() { newGCSBucketService = orig })
	newGCSBucketService = func(context.Context, *logger.Logger, storage.Config) (storage.BucketService, error) {
		t.Fatalf("constructor should not be called")
		return nil, nil
	}

	_, _, err := resolveBucketService(context.Background(), logger.NewNop(), Config{
		Storage: StorageConfig{Mode: "gcs"},
	})
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorMissingBucketName {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorMissingBucketName, code)
	}
}

func TestResolveBucketServiceGCSConnectFailure(t *testing.T) {
	orig := newGCSBucketService
	t.Cleanup(func() { newGCSBucketService = orig })
	newGCSBucketService = func(context.Context, *logger.Logger, storage.Config) (storage.BucketService, error) {
		return nil, errors.New("credentials rejected")
	}

	_, _, err := resolveBucketService(context.Background(), logger.NewNop(), Config{
		Storage: StorageConfig{Mode: "gcs", BucketName: "paw-media"},
	})
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorConnectFailed, code)
	}
}

type testBucketService struct{}

func (t *testBucketService) UploadFile(context.Context, storage.BucketCategory, string, io.Reader) error {
	return nil
}

func (t *testBucketService) DeleteFile(context.Context, storage.BucketCategory, string) error {
	return nil
}

func (t *testBucketService) DownloadFile(context.Context, storage.BucketCategory, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (t *testBucketService) GetPublicURL(storage.BucketCategory, string) string {
	return ""
}
