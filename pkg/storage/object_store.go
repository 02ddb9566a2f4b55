package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// ErrUnavailable is returned by a store that is switched off.
	ErrUnavailable = errors.New("object store unavailable")
	// ErrBucketMissing is returned when writing into a bucket that does not exist.
	ErrBucketMissing = errors.New("bucket does not exist")
)

// ObjectStore provides access to one bucket.
type ObjectStore interface {
	BucketExists(ctx context.Context) (bool, error)
	CreateBucket(ctx context.Context, public bool) error
	// Upload stores an object and returns its public URL.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// MinioConfig holds connection settings for MinIO/S3 compatible storage.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL replaces the endpoint in returned URLs, e.g. a CDN host.
	PublicBaseURL string
}

// MinioStore implements ObjectStore for MinIO/S3 compatible storage.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore builds a client. The bucket is not checked here; callers
// ensure it on first use.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = strings.TrimRight(client.EndpointURL().String(), "/")
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, baseURL: base}, nil
}

// Bucket returns the bucket name.
func (m *MinioStore) Bucket() string {
	return m.bucket
}

// BucketExists reports whether the bucket is there.
func (m *MinioStore) BucketExists(ctx context.Context) (bool, error) {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return false, fmt.Errorf("check bucket: %w", err)
	}
	return ok, nil
}

// CreateBucket creates the bucket. A public bucket gets an anonymous read policy.
func (m *MinioStore) CreateBucket(ctx context.Context, public bool) error {
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code != "BucketAlreadyOwnedByYou" && resp.Code != "BucketAlreadyExists" {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	if !public {
		return nil
	}
	policy, err := publicReadPolicy(m.bucket)
	if err != nil {
		return err
	}
	if err := m.client.SetBucketPolicy(ctx, m.bucket, policy); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

// Upload puts an object and returns its public URL.
func (m *MinioStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return publicURL(m.baseURL, m.bucket, key), nil
}

// Delete removes an object.
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

func publicReadPolicy(bucket string) (string, error) {
	doc := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
		}},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode bucket policy: %w", err)
	}
	return string(data), nil
}

func publicURL(base, bucket, key string) string {
	return base + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
}
