package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	_ s3API       = (*s3.Client)(nil)
	_ s3Presigner = (*s3.PresignClient)(nil)
)

// S3Driver implements Driver with the AWS SDK for Go v2.
type S3Driver struct {
	api       s3API
	presigner s3Presigner
	transport *http.Transport
	endpoint  *url.URL
	region    string
	pathStyle bool
}

// NewS3Driver creates an S3 client pointed at the configured endpoint.
func NewS3Driver(cfg Config, endpoint *url.URL) (*S3Driver, error) {
	transport := newTransport(cfg.Timeout())
	httpClient := &http.Client{Transport: transport}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion(cfg.Region),
		config.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint.String())
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Driver{
		api:       client,
		presigner: s3.NewPresignClient(client),
		transport: transport,
		endpoint:  endpoint,
		region:    cfg.Region,
		pathStyle: cfg.PathStyle,
	}, nil
}

// HeadBucket probes the bucket with a HEAD request.
func (d *S3Driver) HeadBucket(ctx context.Context, bucket string) error {
	_, err := d.api.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	return classifyS3Error(err)
}

// CreateBucket creates the bucket, adding a location constraint outside us-east-1.
func (d *S3Driver) CreateBucket(ctx context.Context, bucket string) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	// us-east-1 rejects an explicit location constraint
	if d.region != "" && d.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(d.region),
		}
	}
	_, err := d.api.CreateBucket(ctx, input)
	return classifyS3Error(err)
}

// HeadObject probes key with a HEAD request.
func (d *S3Driver) HeadObject(ctx context.Context, bucket, key string) error {
	_, err := d.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return classifyS3Error(err)
}

// PutObject uploads reader. ContentLength is only sent for a known size.
func (d *S3Driver) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   reader,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	_, err := d.api.PutObject(ctx, input)
	return classifyS3Error(err)
}

// PresignGetObject signs a GET request valid for expiry.
func (d *S3Driver) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error) {
	req, err := d.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return nil, classifyS3Error(err)
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse presigned url: %w", err)
	}
	return u, nil
}

// ObjectURL returns the unsigned URL of key.
func (d *S3Driver) ObjectURL(bucket, key string) (*url.URL, error) {
	return objectURL(d.endpoint, bucket, key, d.pathStyle), nil
}

// DeleteObject removes key.
func (d *S3Driver) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := d.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return classifyS3Error(err)
}

// Close drops idle connections of the driver transport.
func (d *S3Driver) Close() error {
	if d.transport != nil {
		d.transport.CloseIdleConnections()
	}
	return nil
}

// classifyS3Error wraps SDK errors with the package sentinels.
func classifyS3Error(err error) error {
	if err == nil {
		return nil
	}
	if isS3NotFound(err) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if isS3Denied(err) {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return err
}

func isS3NotFound(err error) bool {
	// Check for typed S3 errors first
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Fall back to API error codes for S3-compatible services
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket", "NoSuchKey", "404":
			return true
		}
	}

	return httpStatus(err) == http.StatusNotFound
}

func isS3Denied(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "403":
			return true
		}
	}

	status := httpStatus(err)
	return status == http.StatusForbidden || status == http.StatusUnauthorized
}

func httpStatus(err error) int {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}
