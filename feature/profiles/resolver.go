package profiles

import (
	"context"
	"errors"
	"fmt"

	"file-storage/core/storage"
)

// ErrUnknownBucket is returned for a bucket with no profile when dynamic buckets are off.
var ErrUnknownBucket = errors.New("unknown bucket")

// Resolver maps a bucket name to connection parameters.
type Resolver struct {
	store        *Store
	defaults     storage.Config
	allowDynamic bool
}

// NewResolver creates a resolver. store may be nil when no database is configured.
func NewResolver(store *Store, defaults storage.Config, allowDynamic bool) *Resolver {
	return &Resolver{store: store, defaults: defaults, allowDynamic: allowDynamic}
}

// Resolve returns the parameters for bucket. A stored profile wins over the
// default bucket; other buckets reuse the default connection only when
// dynamic buckets are allowed.
func (r *Resolver) Resolve(ctx context.Context, bucket string) (storage.Config, error) {
	if bucket == "" {
		return storage.Config{}, &storage.ValidationError{Field: "bucket"}
	}

	if r.store != nil {
		p, err := r.store.Get(ctx, bucket)
		switch {
		case err == nil:
			return p.Config(), nil
		case !errors.Is(err, ErrProfileNotFound):
			return storage.Config{}, err
		}
	}

	if bucket == r.defaults.Bucket || r.allowDynamic {
		cfg := r.defaults
		cfg.Bucket = bucket
		return cfg, nil
	}

	return storage.Config{}, fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
}

// Default returns the default connection parameters.
func (r *Resolver) Default() storage.Config {
	return r.defaults
}
