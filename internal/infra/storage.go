package infra

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/umalmyha/intake/internal/config"
	"github.com/umalmyha/intake/internal/upload"
)

// UploadStorage builds storage for customer photos according to configured driver
func UploadStorage(ctx context.Context, cfg config.StorageCfg) (upload.Storage, error) {
	if cfg.Driver != config.StorageDriverMinio {
		return upload.NewLocalStorage(cfg.LocalDir), nil
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client - %w", err)
	}

	s, err := upload.NewMinioStorage(ctx, client, cfg.MinioBucket)
	if err != nil {
		return nil, err
	}
	return s, nil
}
