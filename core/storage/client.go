package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Client operates on a single bucket through a Driver.
// Operations never return errors; each reports a Result instead.
type Client struct {
	cfg     Config
	driver  Driver
	logger  *zap.Logger
	metrics *Metrics
}

// NewClient wraps a driver with the config it was built from.
func NewClient(cfg Config, driver Driver, logger *zap.Logger, metrics *Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		driver:  driver,
		logger:  logger.With(zap.String("bucket", cfg.Bucket)),
		metrics: metrics,
	}
}

// Config returns the connection parameters of the client.
func (c *Client) Config() Config { return c.cfg }

// Bucket returns the bucket the client operates on.
func (c *Client) Bucket() string { return c.cfg.Bucket }

// Close releases the underlying driver.
func (c *Client) Close() error { return c.driver.Close() }

// NormalizeKey strips one leading '/' from an object key.
func NormalizeKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

func (c *Client) objectKey(key string) (string, error) {
	k := NormalizeKey(key)
	if k == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return k, nil
}

// BucketExists reports whether the named bucket exists on this connection.
func (c *Client) BucketExists(ctx context.Context, name string) (bool, Result) {
	res := ResultOf(c.driver.HeadBucket(ctx, name))
	c.record("bucket_exists", name, res)
	return res.OK(), res
}

// ObjectExists reports whether key exists in the client's bucket.
func (c *Client) ObjectExists(ctx context.Context, key string) (bool, Result) {
	k, err := c.objectKey(key)
	if err == nil {
		err = c.driver.HeadObject(ctx, c.cfg.Bucket, k)
	}
	res := ResultOf(err)
	c.record("object_exists", key, res)
	return res.OK(), res
}

// PutObject uploads reader under key. size may be -1 when unknown.
func (c *Client) PutObject(ctx context.Context, key string, reader io.Reader, size int64) Result {
	k, err := c.objectKey(key)
	if err == nil {
		err = c.driver.PutObject(ctx, c.cfg.Bucket, k, reader, size)
	}
	res := ResultOf(err)
	c.record("put_object", key, res)
	return res
}

// TemporaryURL returns a presigned download URL for key.
func (c *Client) TemporaryURL(ctx context.Context, key string) (*url.URL, Result) {
	k, err := c.objectKey(key)
	var u *url.URL
	if err == nil {
		u, err = c.driver.PresignGetObject(ctx, c.cfg.Bucket, k, c.cfg.Expiry())
	}
	res := ResultOf(err)
	c.record("temporary_url", key, res)
	if !res.OK() {
		return nil, res
	}
	return u, res
}

// PublicURL returns the unsigned URL of key. It only resolves for public-read buckets.
func (c *Client) PublicURL(key string) (*url.URL, Result) {
	k, err := c.objectKey(key)
	var u *url.URL
	if err == nil {
		u, err = c.driver.ObjectURL(c.cfg.Bucket, k)
	}
	res := ResultOf(err)
	c.record("public_url", key, res)
	if !res.OK() {
		return nil, res
	}
	return u, res
}

// DeleteObject removes key from the bucket.
func (c *Client) DeleteObject(ctx context.Context, key string) Result {
	k, err := c.objectKey(key)
	if err == nil {
		err = c.driver.DeleteObject(ctx, c.cfg.Bucket, k)
	}
	res := ResultOf(err)
	c.record("delete_object", key, res)
	return res
}

func (c *Client) record(op, target string, res Result) {
	c.metrics.observeOperation(op, res.Status)

	switch res.Status {
	case StatusSuccess:
	case StatusNotFound:
		c.logger.Debug("Storage target not found", zap.String("operation", op), zap.String("target", target))
	default:
		c.logger.Error("Storage operation failed",
			zap.String("operation", op),
			zap.String("target", target),
			zap.Stringer("status", res.Status),
			zap.Error(res.Err),
		)
	}
}
