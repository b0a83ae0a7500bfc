package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioAPI is the subset of *minio.Client used by MinioDriver.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

var _ minioAPI = (*minio.Client)(nil)

// MinioDriver implements Driver with the MinIO Go client.
type MinioDriver struct {
	api       minioAPI
	transport *http.Transport
	endpoint  *url.URL
	region    string
	pathStyle bool
}

// NewMinioDriver creates a MinIO client for the given config.
func NewMinioDriver(cfg Config, endpoint *url.URL) (*MinioDriver, error) {
	transport := newTransport(cfg.Timeout())

	lookup := minio.BucketLookupDNS
	if cfg.PathStyle {
		lookup = minio.BucketLookupPath
	}

	// Minio expects endpoint without scheme
	client, err := minio.New(endpoint.Host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       endpoint.Scheme == "https",
		Region:       cfg.Region,
		Transport:    transport,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	// Minio client connects lazily; the builder's bucket probe is the first round trip.

	return &MinioDriver{
		api:       client,
		transport: transport,
		endpoint:  endpoint,
		region:    cfg.Region,
		pathStyle: cfg.PathStyle,
	}, nil
}

// HeadBucket reports ErrNotFound when BucketExists says the bucket is absent.
func (d *MinioDriver) HeadBucket(ctx context.Context, bucket string) error {
	exists, err := d.api.BucketExists(ctx, bucket)
	if err != nil {
		return classifyMinioError(err)
	}
	if !exists {
		return fmt.Errorf("bucket %s: %w", bucket, ErrNotFound)
	}
	return nil
}

// CreateBucket makes the bucket in the configured region.
func (d *MinioDriver) CreateBucket(ctx context.Context, bucket string) error {
	err := d.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: d.region})
	return classifyMinioError(err)
}

// HeadObject stats key.
func (d *MinioDriver) HeadObject(ctx context.Context, bucket, key string) error {
	_, err := d.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	return classifyMinioError(err)
}

// PutObject uploads reader; size -1 lets minio stream a multipart upload.
func (d *MinioDriver) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64) error {
	_, err := d.api.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{})
	return classifyMinioError(err)
}

// PresignGetObject returns a signed GET URL valid for expiry.
func (d *MinioDriver) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error) {
	u, err := d.api.PresignedGetObject(ctx, bucket, key, expiry, url.Values{})
	if err != nil {
		return nil, classifyMinioError(err)
	}
	return u, nil
}

// ObjectURL returns the unsigned URL of key.
func (d *MinioDriver) ObjectURL(bucket, key string) (*url.URL, error) {
	return objectURL(d.endpoint, bucket, key, d.pathStyle), nil
}

// DeleteObject removes key. Missing keys are not an error.
func (d *MinioDriver) DeleteObject(ctx context.Context, bucket, key string) error {
	err := d.api.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	return classifyMinioError(err)
}

// Close drops idle connections of the driver transport.
func (d *MinioDriver) Close() error {
	if d.transport != nil {
		d.transport.CloseIdleConnections()
	}
	return nil
}

// classifyMinioError wraps MinIO error responses with the package sentinels.
func classifyMinioError(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchBucket", "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return err
}
