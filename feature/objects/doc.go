// Package objects exposes bucket and object operations over HTTP.
//
// Every request names a bucket. The Service resolves it through
// profiles.Resolver, builds (or reuses) the storage client, and runs the
// operation. Result statuses map to HTTP codes: not found 404, permission
// denied 403, invalid argument 400 and transient failure 502.
//
//	POST   /buckets/:bucket                  ensure the bucket
//	GET    /buckets/:bucket/exists?name=     probe another bucket
//	HEAD   /buckets/:bucket/objects/*        object exists
//	PUT    /buckets/:bucket/objects/*        upload the body
//	GET    /buckets/:bucket/objects/*?url=   temporary or public URL
//	DELETE /buckets/:bucket/objects/*        delete
package objects
