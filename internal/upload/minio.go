package upload

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/minio/minio-go/v7"
)

const minioNoSuchKey = "NoSuchKey"

// minioAPI is the subset of *minio.Client used by MinioStorage
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}

func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}

func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}

	// GetObject is lazy, stat reveals missing object before anything is served
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

func (w minioClientWrapper) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return w.c.RemoveObject(ctx, bucketName, objectName, opts)
}

func (w minioClientWrapper) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return w.c.StatObject(ctx, bucketName, objectName, opts)
}

var _ Storage = (*MinioStorage)(nil)

// MinioStorage keeps files in S3-compatible bucket
type MinioStorage struct {
	api    minioAPI
	bucket string
}

// NewMinioStorage builds MinioStorage and creates bucket if it doesn't exist
func NewMinioStorage(ctx context.Context, client *minio.Client, bucket string) (*MinioStorage, error) {
	return newMinioStorageWithAPI(ctx, minioClientWrapper{c: client}, bucket)
}

func newMinioStorageWithAPI(ctx context.Context, api minioAPI, bucket string) (*MinioStorage, error) {
	s := &MinioStorage{api: api, bucket: bucket}

	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s existence - %w", bucket, err)
	}

	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s - %w", bucket, err)
		}
	}
	return s, nil
}

func (s *MinioStorage) Put(ctx context.Context, name string, r io.Reader, _ int64) (string, error) {
	_, err := s.api.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err == nil {
		return "", fmt.Errorf("object %s already exists - %w", name, fs.ErrExist)
	}

	if minio.ToErrorResponse(err).Code != minioNoSuchKey {
		return "", fmt.Errorf("failed to stat object %s - %w", name, err)
	}

	// size is unknown for sure until the content is read, so object is streamed
	_, err = s.api.PutObject(ctx, s.bucket, name, r, -1, minio.PutObjectOptions{ContentType: AcceptedMimeType})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s - %w", name, err)
	}

	return fmt.Sprintf("%s/%s", s.bucket, name), nil
}

func (s *MinioStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == minioNoSuchKey {
			return nil, fmt.Errorf("object %s - %w", name, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to get object %s - %w", name, err)
	}
	return obj, nil
}

func (s *MinioStorage) Delete(ctx context.Context, name string) error {
	if err := s.api.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s - %w", name, err)
	}
	return nil
}
