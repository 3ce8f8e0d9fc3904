package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/platform/storage"
)

var (
	newLocalBucketService = storage.NewLocalBucketService
	newGCSBucketService   = storage.NewGCSBucketService
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode       StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucketName StorageProviderBootstrapErrorCode = "missing_bucket_name"
	StorageProviderBootstrapErrorMissingLocalDir   StorageProviderBootstrapErrorCode = "missing_local_dir"
	StorageProviderBootstrapErrorConnectFailed     StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code   StorageProviderBootstrapErrorCode
	Mode   string
	Target string
	Cause  error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q target=%q): %v",
		e.Code,
		e.Mode,
		e.Target,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func storageConfig(cfg Config) storage.Config {
	return storage.Config{
		LocalDir:        strings.TrimSpace(cfg.Storage.LocalDir),
		PublicBaseURL:   strings.TrimSpace(cfg.Storage.PublicBaseURL),
		BucketName:      strings.TrimSpace(cfg.Storage.BucketName),
		CDNDomain:       strings.TrimSpace(cfg.Storage.CDNDomain),
		CredentialsJSON: strings.TrimSpace(cfg.Storage.CredentialsJSON),
	}
}

func storageTarget(sc storage.Config) string {
	if sc.Mode == storage.ModeGCS {
		return sc.BucketName
	}
	return sc.LocalDir
}

// resolveBucketService picks the media backend from STORAGE_MODE and returns a classified
// *StorageProviderBootstrapError on failure.
func resolveBucketService(ctx context.Context, log *logger.Logger, cfg Config) (storage.BucketService, storage.Config, error) {
	sc := storageConfig(cfg)
	mode, err := storage.ParseMode(cfg.Storage.Mode)
	if err != nil {
		bootErr := &StorageProviderBootstrapError{
			Code:  StorageProviderBootstrapErrorInvalidMode,
			Mode:  cfg.Storage.Mode,
			Cause: err,
		}
		log.Error("Object storage provider selection failed", "mode", cfg.Storage.Mode, "error_code", bootErr.Code, "error", err)
		return nil, sc, bootErr
	}
	sc.Mode = mode

	log.Info("Selecting object storage provider", "mode", sc.Mode, "target", storageTarget(sc))

	var bucket storage.BucketService
	switch sc.Mode {
	case storage.ModeGCS:
		if sc.BucketName == "" {
			err = &StorageProviderBootstrapError{
				Code:  StorageProviderBootstrapErrorMissingBucketName,
				Mode:  string(sc.Mode),
				Cause: errors.New("GCS_BUCKET_NAME is required for gcs storage"),
			}
			break
		}
		bucket, err = newGCSBucketService(ctx, log, sc)
	default:
		if sc.LocalDir == "" {
			err = &StorageProviderBootstrapError{
				Code:  StorageProviderBootstrapErrorMissingLocalDir,
				Mode:  string(sc.Mode),
				Cause: errors.New("STORAGE_LOCAL_DIR is required for local storage"),
			}
			break
		}
		bucket, err = newLocalBucketService(log, sc)
	}
	if err != nil {
		classified := classifyStorageProviderBootstrapError(sc, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", sc.Mode,
			"target", storageTarget(sc),
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, sc, classified
	}
	return bucket, sc, nil
}

func classifyStorageProviderBootstrapError(sc storage.Config, err error) error {
	var bootErr *StorageProviderBootstrapError
	if errors.As(err, &bootErr) {
		return bootErr
	}
	return &StorageProviderBootstrapError{
		Code:   StorageProviderBootstrapErrorConnectFailed,
		Mode:   string(sc.Mode),
		Target: storageTarget(sc),
		Cause:  err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
