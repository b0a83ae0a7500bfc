// Package profiles stores per-bucket connection parameters in the database
// and resolves a bucket name to the storage.Config used to build its client.
//
// Resolution order:
//
//  1. a row in storage_profiles for the bucket
//  2. the default storage config, when the bucket is the default bucket
//  3. the default connection with the requested bucket, when dynamic buckets are allowed
//
// Anything else fails with ErrUnknownBucket. The HTTP routes under /profiles
// never return credentials in clear text.
package profiles
