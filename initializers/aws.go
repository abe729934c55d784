package initializers

import (
	"context"
	"fmt"

	"github.com/pawanx64/File-Sharing-Backend/storage"
)

// NewObjectStore builds the object store selected by STORAGE_DRIVER.
func NewObjectStore(ctx context.Context, cfg *Config) (storage.ObjectStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:    cfg.AWSRegion,
			Bucket:    cfg.Bucket,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.StoragePublicURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "minio":
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.StoragePublicURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return storage.NewMemoryStore(cfg.StoragePublicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
