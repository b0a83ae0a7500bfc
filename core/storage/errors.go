package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by drivers when a bucket or key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is wrapped by drivers on 401/403 class failures.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidKey is returned for keys that are empty after normalization.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrUnknownType is returned for an unsupported storage type.
	ErrUnknownType = errors.New("unknown storage type")
)

// ValidationError reports a missing or unusable connection parameter.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage param [%s] invalid: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("storage param [%s] can't be blank", e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// InvalidEndpointError reports an endpoint that is not a usable URI.
type InvalidEndpointError struct {
	Endpoint string
	Err      error
}

func (e *InvalidEndpointError) Error() string {
	return fmt.Sprintf("storage param [endpoint] invalid %q: %v", e.Endpoint, e.Err)
}

func (e *InvalidEndpointError) Unwrap() error { return e.Err }

// BucketProbeError reports an unexpected failure while checking bucket existence.
type BucketProbeError struct {
	Bucket string
	Err    error
}

func (e *BucketProbeError) Error() string {
	return fmt.Sprintf("failed to probe bucket %s: %v", e.Bucket, e.Err)
}

func (e *BucketProbeError) Unwrap() error { return e.Err }

// BucketCreateError reports a failed create after the bucket was found missing.
type BucketCreateError struct {
	Bucket string
	Err    error
}

func (e *BucketCreateError) Error() string {
	return fmt.Sprintf("failed to create bucket %s: %v", e.Bucket, e.Err)
}

func (e *BucketCreateError) Unwrap() error { return e.Err }

// Status classifies the outcome of a client operation.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotFound
	StatusPermissionDenied
	StatusInvalidArgument
	StatusTransientFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not_found"
	case StatusPermissionDenied:
		return "permission_denied"
	case StatusInvalidArgument:
		return "invalid_argument"
	case StatusTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// Result is returned by every Client operation in place of an error.
// Err holds the underlying cause for anything other than StatusSuccess.
type Result struct {
	Status Status
	Err    error
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// NotFound reports whether the bucket or key was missing.
func (r Result) NotFound() bool { return r.Status == StatusNotFound }

func (r Result) String() string {
	if r.Err == nil {
		return r.Status.String()
	}
	return fmt.Sprintf("%s: %v", r.Status, r.Err)
}

// ResultOf classifies err into a Result.
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return Result{Status: StatusSuccess}
	case errors.Is(err, ErrNotFound):
		return Result{Status: StatusNotFound, Err: err}
	case errors.Is(err, ErrPermissionDenied):
		return Result{Status: StatusPermissionDenied, Err: err}
	case errors.Is(err, ErrInvalidKey):
		return Result{Status: StatusInvalidArgument, Err: err}
	default:
		return Result{Status: StatusTransientFailure, Err: err}
	}
}
