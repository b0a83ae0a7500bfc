// Package storage provides cached clients for S3-compatible object storage.
//
// A Builder validates connection parameters, returns the client already
// registered for the bucket, or builds a new one. Building probes the bucket
// and creates it when the service reports it missing. Clients are published to
// a Registry keyed by bucket name, so one bucket maps to one connection for
// the lifetime of the registry.
//
// # Drivers
//
// The Driver interface abstracts the SDK. Config.Type selects the implementation:
//   - minio: the MinIO Go client (default)
//   - s3: the AWS SDK for Go v2
//   - memory: an in-process store for development and tests
//
// # Operations
//
// Client operations never return errors. Each returns a Result whose Status
// separates success, a missing bucket or key, denied access, a bad argument,
// and any other failure:
//   - BucketExists / ObjectExists: head requests
//   - PutObject: upload from a reader
//   - TemporaryURL: presigned GET URL valid for Config.PresignExpiry
//   - PublicURL: unsigned URL for public-read buckets
//   - DeleteObject: remove a key
//
// Keys are normalized by stripping one leading '/'.
//
// # Usage
//
//	builder := storage.NewBuilder(storage.NewRegistry(), logger)
//	client, err := builder.Build(ctx, cfg.Storage)
//	if ok, res := client.ObjectExists(ctx, "/docs/a.pdf"); !ok && !res.NotFound() {
//	    logger.Warn("head failed", zap.Stringer("result", res))
//	}
package storage
