package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// MemoryDriver keeps buckets and objects in process memory.
// It is meant for local development and tests.
type MemoryDriver struct {
	mu        sync.RWMutex
	buckets   map[string]map[string][]byte
	endpoint  *url.URL
	pathStyle bool
	closed    bool
}

// NewMemoryDriver creates an empty in-memory store.
func NewMemoryDriver(endpoint *url.URL, pathStyle bool) *MemoryDriver {
	return &MemoryDriver{
		buckets:   make(map[string]map[string][]byte),
		endpoint:  endpoint,
		pathStyle: pathStyle,
	}
}

// HeadBucket reports ErrNotFound for an unknown bucket.
func (d *MemoryDriver) HeadBucket(_ context.Context, bucket string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.buckets[bucket]; !ok {
		return fmt.Errorf("bucket %s: %w", bucket, ErrNotFound)
	}
	return nil
}

// CreateBucket fails if the bucket already exists.
func (d *MemoryDriver) CreateBucket(_ context.Context, bucket string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buckets[bucket]; ok {
		return fmt.Errorf("bucket %s already exists", bucket)
	}
	d.buckets[bucket] = make(map[string][]byte)
	return nil
}

// HeadObject reports ErrNotFound for an unknown bucket or key.
func (d *MemoryDriver) HeadObject(_ context.Context, bucket, key string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	objects, ok := d.buckets[bucket]
	if !ok {
		return fmt.Errorf("bucket %s: %w", bucket, ErrNotFound)
	}
	if _, ok := objects[key]; !ok {
		return fmt.Errorf("key %s: %w", key, ErrNotFound)
	}
	return nil
}

// PutObject stores a copy of the body, reading at most size bytes when size >= 0.
func (d *MemoryDriver) PutObject(_ context.Context, bucket, key string, reader io.Reader, size int64) error {
	if size >= 0 {
		reader = io.LimitReader(reader, size)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	objects, ok := d.buckets[bucket]
	if !ok {
		return fmt.Errorf("bucket %s: %w", bucket, ErrNotFound)
	}
	objects[key] = data
	return nil
}

// Object returns a copy of a stored object.
func (d *MemoryDriver) Object(bucket, key string) ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.buckets[bucket][key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// PresignGetObject returns the object URL with an X-Expires timestamp.
func (d *MemoryDriver) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error) {
	if err := d.HeadBucket(ctx, bucket); err != nil {
		return nil, err
	}
	u := objectURL(d.endpoint, bucket, key, d.pathStyle)
	q := url.Values{}
	q.Set("X-Expires", strconv.FormatInt(time.Now().Add(expiry).Unix(), 10))
	u.RawQuery = q.Encode()
	return u, nil
}

// ObjectURL returns the unsigned URL of key.
func (d *MemoryDriver) ObjectURL(bucket, key string) (*url.URL, error) {
	return objectURL(d.endpoint, bucket, key, d.pathStyle), nil
}

// DeleteObject removes key.
func (d *MemoryDriver) DeleteObject(_ context.Context, bucket, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	objects, ok := d.buckets[bucket]
	if !ok {
		return fmt.Errorf("bucket %s: %w", bucket, ErrNotFound)
	}
	// S3 semantics: deleting a missing key succeeds
	delete(objects, key)
	return nil
}

// Close marks the driver closed. Stored data stays readable.
func (d *MemoryDriver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (d *MemoryDriver) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}
