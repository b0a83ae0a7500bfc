package mocks

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/stretchr/testify/mock"
)

// Driver is a mock implementation of storage.Driver
type Driver struct {
	mock.Mock
}

func (m *Driver) HeadBucket(ctx context.Context, bucket string) error {
	args := m.Called(ctx, bucket)
	return args.Error(0)
}

func (m *Driver) CreateBucket(ctx context.Context, bucket string) error {
	args := m.Called(ctx, bucket)
	return args.Error(0)
}

func (m *Driver) HeadObject(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *Driver) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64) error {
	args := m.Called(ctx, bucket, key, reader, size)
	return args.Error(0)
}

func (m *Driver) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error) {
	args := m.Called(ctx, bucket, key, expiry)
	if u, ok := args.Get(0).(*url.URL); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Driver) ObjectURL(bucket, key string) (*url.URL, error) {
	args := m.Called(bucket, key)
	if u, ok := args.Get(0).(*url.URL); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Driver) DeleteObject(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *Driver) Close() error {
	args := m.Called()
	return args.Error(0)
}
