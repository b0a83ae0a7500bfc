package objects

import (
	"context"
	"errors"
	"io"
	"net/url"

	"file-storage/core/storage"
	"file-storage/feature/profiles"

	"go.uber.org/zap"
)

// URLKind selects the kind of object URL to return.
type URLKind string

const (
	URLTemporary URLKind = "temporary"
	URLPublic    URLKind = "public"
)

// Service resolves bucket names to storage clients and runs object operations on them.
type Service struct {
	resolver *profiles.Resolver
	builder  *storage.Builder
	logger   *zap.Logger
}

// NewService creates a new object service.
func NewService(resolver *profiles.Resolver, builder *storage.Builder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: resolver, builder: builder, logger: logger}
}

// Client returns the client of bucket, building it and ensuring the bucket on first use.
// A build superseded by a profile change is retried once with the new parameters.
func (s *Service) Client(ctx context.Context, bucket string) (*storage.Client, error) {
	client, err := s.build(ctx, bucket)
	if errors.Is(err, storage.ErrSuperseded) {
		s.logger.Debug("Rebuilding superseded storage client", zap.String("bucket", bucket))
		client, err = s.build(ctx, bucket)
	}
	return client, err
}

func (s *Service) build(ctx context.Context, bucket string) (*storage.Client, error) {
	cfg, err := s.resolver.Resolve(ctx, bucket)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, cfg)
}

// Buckets returns the buckets that currently have a built client.
func (s *Service) Buckets() []string {
	return s.builder.Registry().Buckets()
}

// BucketExists probes name on the connection of bucket.
func (s *Service) BucketExists(ctx context.Context, bucket, name string) (bool, storage.Result, error) {
	client, err := s.Client(ctx, bucket)
	if err != nil {
		return false, storage.Result{}, err
	}
	ok, res := client.BucketExists(ctx, name)
	return ok, res, nil
}

// ObjectExists reports whether key exists in bucket.
func (s *Service) ObjectExists(ctx context.Context, bucket, key string) (bool, storage.Result, error) {
	client, err := s.Client(ctx, bucket)
	if err != nil {
		return false, storage.Result{}, err
	}
	ok, res := client.ObjectExists(ctx, key)
	return ok, res, nil
}

// Put uploads reader under key in bucket.
func (s *Service) Put(ctx context.Context, bucket, key string, reader io.Reader, size int64) (storage.Result, error) {
	client, err := s.Client(ctx, bucket)
	if err != nil {
		return storage.Result{}, err
	}
	return client.PutObject(ctx, key, reader, size), nil
}

// URL returns a temporary or public URL for key in bucket.
func (s *Service) URL(ctx context.Context, bucket, key string, kind URLKind) (*url.URL, storage.Result, error) {
	client, err := s.Client(ctx, bucket)
	if err != nil {
		return nil, storage.Result{}, err
	}
	if kind == URLPublic {
		u, res := client.PublicURL(key)
		return u, res, nil
	}
	u, res := client.TemporaryURL(ctx, key)
	return u, res, nil
}

// Delete removes key from bucket.
func (s *Service) Delete(ctx context.Context, bucket, key string) (storage.Result, error) {
	client, err := s.Client(ctx, bucket)
	if err != nil {
		return storage.Result{}, err
	}
	return client.DeleteObject(ctx, key), nil
}
