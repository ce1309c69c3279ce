package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage keeps uploaded files, it must never overwrite existing file
type Storage interface {
	// Put writes file and returns path it can be referenced by
	Put(ctx context.Context, name string, r io.Reader, size int64) (string, error)
	// Open returns file content, error wraps fs.ErrNotExist if there is no such file
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// LocalStorage keeps files in local directory
type LocalStorage struct {
	dir string
}

// NewLocalStorage builds LocalStorage, directory is created on first write
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

func (s *LocalStorage) Put(_ context.Context, name string, r io.Reader, _ int64) (_ string, err error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory %s - %w", s.dir, err)
	}

	full := filepath.Clean(filepath.Join(s.dir, name))
	dst, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s - %w", name, err)
	}

	defer func() {
		if cErr := dst.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("failed to close file %s - %w", name, cErr)
		}

		// partially written file must never be served
		if err != nil {
			_ = os.Remove(full)
		}
	}()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("failed to write file %s - %w", name, err)
	}

	return filepath.ToSlash(full), nil
}

func (s *LocalStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
