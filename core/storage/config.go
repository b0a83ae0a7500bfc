package storage

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
)

// Supported storage types.
const (
	TypeMinio  = "minio"
	TypeS3     = "s3"
	TypeMemory = "memory"
)

// DefaultPresignExpiry is used when Config.PresignExpiry is not set.
const DefaultPresignExpiry = time.Hour

// Config holds the connection parameters for a single bucket.
type Config struct {
	// Type selects the driver (minio, s3, memory). Empty means minio.
	Type string `mapstructure:"type" default:"minio"`
	// Endpoint is the URL of the storage service, including the scheme.
	Endpoint string `mapstructure:"endpoint" default:"http://localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:"us-east-1"`
	// Bucket is the name of the bucket the client operates on.
	Bucket string `mapstructure:"bucket" default:"files"`
	// PathStyle forces path-style addressing (endpoint/bucket/key).
	PathStyle bool `mapstructure:"path_style" default:"true"`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// PresignExpiry is the lifetime of temporary URLs.
	PresignExpiry time.Duration `mapstructure:"presign_expiry" default:"1h"`
}

// StorageType returns the configured type, defaulting to minio.
func (c Config) StorageType() string {
	t := strings.ToLower(strings.TrimSpace(c.Type))
	if t == "" {
		return TypeMinio
	}
	return t
}

// Validate checks that every required parameter is present.
func (c Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"endpoint", c.Endpoint},
		{"access_key", c.AccessKey},
		{"secret_key", c.SecretKey},
		{"region", c.Region},
		{"bucket", c.Bucket},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field}
		}
	}

	switch c.StorageType() {
	case TypeMinio, TypeS3, TypeMemory:
	default:
		return &ValidationError{Field: "type", Err: fmt.Errorf("%w: %q", ErrUnknownType, c.Type)}
	}
	return nil
}

// EndpointURL parses the endpoint as an absolute http(s) URI.
func (c Config) EndpointURL() (*url.URL, error) {
	if strings.IndexFunc(c.Endpoint, unicode.IsSpace) >= 0 {
		return nil, &InvalidEndpointError{Endpoint: c.Endpoint, Err: fmt.Errorf("contains whitespace")}
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, &InvalidEndpointError{Endpoint: c.Endpoint, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &InvalidEndpointError{Endpoint: c.Endpoint, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return nil, &InvalidEndpointError{Endpoint: c.Endpoint, Err: fmt.Errorf("missing host")}
	}
	return u, nil
}

// Expiry returns the presigned URL lifetime.
func (c Config) Expiry() time.Duration {
	if c.PresignExpiry <= 0 {
		return DefaultPresignExpiry
	}
	return c.PresignExpiry
}

// Timeout returns the transport timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SameConnection reports whether two configs would build the same connection.
func (c Config) SameConnection(o Config) bool {
	return c.StorageType() == o.StorageType() &&
		c.Endpoint == o.Endpoint &&
		c.AccessKey == o.AccessKey &&
		c.SecretKey == o.SecretKey &&
		c.Region == o.Region &&
		c.PathStyle == o.PathStyle
}

// String masks the credentials.
func (c Config) String() string {
	return fmt.Sprintf("storage.Config{type=%s endpoint=%s region=%s bucket=%s access_key=%s}",
		c.StorageType(), c.Endpoint, c.Region, c.Bucket, mask(c.AccessKey))
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
