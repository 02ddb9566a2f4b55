package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps a bucket as a directory under a base path. The HTTP
// server exposes the base path, so URLs look like <baseURL>/<bucket>/<key>.
type FileStore struct {
	basePath string
	bucket   string
	baseURL  string
}

// NewFileStore creates the base directory if missing. The bucket directory
// itself is created by CreateBucket.
func NewFileStore(basePath, bucket, baseURL string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{
		basePath: basePath,
		bucket:   safeFilename(bucket),
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}, nil
}

// Root is the directory served to clients.
func (f *FileStore) Root() string {
	return f.basePath
}

func (f *FileStore) bucketDir() string {
	return filepath.Join(f.basePath, f.bucket)
}

// BucketExists reports whether the bucket directory is there.
func (f *FileStore) BucketExists(ctx context.Context) (bool, error) {
	info, err := os.Stat(f.bucketDir())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat bucket: %w", err)
	}
	return info.IsDir(), nil
}

// CreateBucket creates the bucket directory. Files are always public.
func (f *FileStore) CreateBucket(ctx context.Context, public bool) error {
	if err := os.MkdirAll(f.bucketDir(), 0o755); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Upload writes the object and returns its URL.
func (f *FileStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := f.bucketDir()
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("upload %s: %w", key, ErrBucketMissing)
		}
		return "", fmt.Errorf("stat bucket: %w", err)
	}
	name := safeFilename(key)
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename file: %w", err)
	}
	return publicURL(f.baseURL, f.bucket, name), nil
}

// Delete removes an object. Missing objects are ignored.
func (f *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(f.bucketDir(), safeFilename(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func safeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "object"
	}
	return name
}
