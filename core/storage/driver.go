package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Driver is the lower-level handle to an S3-compatible service.
// Implementations wrap ErrNotFound and ErrPermissionDenied so callers can classify failures.
type Driver interface {
	// HeadBucket checks that a bucket exists and is reachable.
	HeadBucket(ctx context.Context, bucket string) error
	// CreateBucket creates a bucket in the configured region.
	CreateBucket(ctx context.Context, bucket string) error
	// HeadObject checks that an object exists.
	HeadObject(ctx context.Context, bucket, key string) error
	// PutObject uploads an object. size may be -1 when unknown.
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64) error
	// PresignGetObject returns a signed download URL valid for expiry.
	PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error)
	// ObjectURL returns the unsigned URL of an object.
	ObjectURL(bucket, key string) (*url.URL, error)
	// DeleteObject removes an object.
	DeleteObject(ctx context.Context, bucket, key string) error
	// Close releases connections held by the driver.
	Close() error
}

// DriverFactory builds a Driver for a validated config and its parsed endpoint.
type DriverFactory func(cfg Config, endpoint *url.URL) (Driver, error)

// NewDriver selects a driver implementation from cfg.Type.
func NewDriver(cfg Config, endpoint *url.URL) (Driver, error) {
	switch cfg.StorageType() {
	case TypeMinio:
		return NewMinioDriver(cfg, endpoint)
	case TypeS3:
		return NewS3Driver(cfg, endpoint)
	case TypeMemory:
		return NewMemoryDriver(endpoint, cfg.PathStyle), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
	}
}

// newTransport creates an HTTP transport with strict connection timeouts.
func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout, // Connection setup timeout
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout, // Wait for first response byte timeout
	}
}

// objectURL joins endpoint, bucket and key using path-style or virtual-hosted addressing.
func objectURL(endpoint *url.URL, bucket, key string, pathStyle bool) *url.URL {
	u := *endpoint
	u.RawQuery = ""
	u.Fragment = ""
	base := u.Path
	if len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	if pathStyle {
		u.Path = base + "/" + bucket + "/" + key
	} else {
		u.Host = bucket + "." + u.Host
		u.Path = base + "/" + key
	}
	u.RawPath = ""
	return &u
}
