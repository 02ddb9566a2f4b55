package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps objects in process. Used in tests and local runs
// without a bucket.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	bucket  string
	exists  bool
	public  bool
	objects map[string][]byte
	types   map[string]string
	failErr error
}

// NewMemoryStore returns an empty store whose bucket does not exist yet.
func NewMemoryStore(bucket, baseURL string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		baseURL: baseURL,
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// SetUnavailable makes every call fail with err. Nil restores the store.
func (m *MemoryStore) SetUnavailable(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// BucketExists reports whether CreateBucket ran.
func (m *MemoryStore) BucketExists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return false, m.failErr
	}
	return m.exists, nil
}

// CreateBucket marks the bucket as present.
func (m *MemoryStore) CreateBucket(ctx context.Context, public bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.exists = true
	m.public = public
	return nil
}

// DropBucket removes the bucket and its objects, as if deleted out of band.
func (m *MemoryStore) DropBucket() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists = false
	m.public = false
	clear(m.objects)
	clear(m.types)
}

// Public reports whether the bucket was created public.
func (m *MemoryStore) Public() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.public
}

// Upload stores the object bytes.
func (m *MemoryStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read object: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return "", m.failErr
	}
	if !m.exists {
		return "", fmt.Errorf("upload %s: %w", key, ErrBucketMissing)
	}
	m.objects[key] = data
	m.types[key] = contentType
	return publicURL(m.baseURL, m.bucket, key), nil
}

// Delete removes an object.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

// Object returns a stored object.
func (m *MemoryStore) Object(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(data), m.types[key], true
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
