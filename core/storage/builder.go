package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Builder returns cached clients and builds missing ones, ensuring their bucket exists.
type Builder struct {
	registry  *Registry
	newDriver DriverFactory
	logger    *zap.Logger
	metrics   *Metrics
	sf        singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
}

// Option configures a Builder.
type Option func(*Builder)

// WithDriverFactory overrides how drivers are constructed.
func WithDriverFactory(f DriverFactory) Option {
	return func(b *Builder) { b.newDriver = f }
}

// WithMetrics records build and operation counters.
func WithMetrics(m *Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// NewBuilder creates a builder backed by registry.
func NewBuilder(registry *Registry, logger *zap.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Builder{
		registry:  registry,
		newDriver: NewDriver,
		logger:    logger,
		gens:      make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ErrSuperseded is returned by a build whose bucket was evicted while it ran.
var ErrSuperseded = errors.New("storage client superseded by eviction")

// Registry returns the registry the builder publishes to.
func (b *Builder) Registry() *Registry { return b.registry }

// Build returns the client for cfg.Bucket, constructing it on first use.
//
// Clients are cached by bucket name only: a later call for the same bucket with
// different connection parameters receives the first client.
//
// Concurrent first calls share one construction. It runs detached from the
// caller's cancellation; each caller still returns when its own ctx is done.
func (b *Builder) Build(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		b.metrics.observeBuild(BuildFailed)
		return nil, err
	}

	endpoint, err := cfg.EndpointURL()
	if err != nil {
		b.logger.Error("Storage endpoint invalid", zap.String("endpoint", cfg.Endpoint), zap.Error(err))
		b.metrics.observeBuild(BuildFailed)
		return nil, err
	}

	if c, ok := b.cached(cfg); ok {
		return c, nil
	}

	leader := false
	ch := b.sf.DoChan(cfg.Bucket, func() (any, error) {
		leader = true
		// Another flight may have finished between the lookup and here
		if c, ok := b.registry.Get(cfg.Bucket); ok {
			return built{client: c}, nil
		}
		return b.construct(context.WithoutCancel(ctx), cfg, endpoint)
	})

	select {
	case <-ctx.Done():
		b.metrics.observeBuild(BuildFailed)
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			b.metrics.observeBuild(BuildFailed)
			return nil, res.Err
		}
		v := res.Val.(built)
		if leader && v.created {
			b.metrics.observeBuild(BuildCreated)
		} else {
			b.metrics.observeBuild(BuildCached)
		}
		return v.client, nil
	}
}

// built is the shared result of one construction.
type built struct {
	client  *Client
	created bool
}

// Evict drops the cached client of bucket. A construction for bucket that is
// still running when Evict is called fails with ErrSuperseded instead of
// publishing its client.
func (b *Builder) Evict(bucket string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gens[bucket]++
	b.sf.Forget(bucket)
	return b.registry.Remove(bucket)
}

func (b *Builder) generation(bucket string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gens[bucket]
}

func (b *Builder) cached(cfg Config) (*Client, bool) {
	c, ok := b.registry.Get(cfg.Bucket)
	if !ok {
		return nil, false
	}

	if !c.Config().SameConnection(cfg) {
		b.logger.Warn("Bucket already bound to a different connection, returning cached client",
			zap.String("bucket", cfg.Bucket),
			zap.Stringer("cached", c.Config()),
			zap.Stringer("requested", cfg),
		)
	} else {
		b.logger.Debug("Bucket had init storage client, just return", zap.String("bucket", cfg.Bucket))
	}
	b.metrics.observeBuild(BuildCached)
	return c, true
}

func (b *Builder) construct(ctx context.Context, cfg Config, endpoint *url.URL) (built, error) {
	gen := b.generation(cfg.Bucket)

	driver, err := b.newDriver(cfg, endpoint)
	if err != nil {
		return built{}, fmt.Errorf("failed to create %s driver: %w", cfg.StorageType(), err)
	}

	client := NewClient(cfg, driver, b.logger, b.metrics)
	if err := b.ensureBucket(ctx, driver, cfg.Bucket); err != nil {
		_ = client.Close()
		return built{}, err
	}

	b.mu.Lock()
	if b.gens[cfg.Bucket] != gen {
		b.mu.Unlock()
		_ = client.Close()
		b.logger.Info("Storage client evicted during build, discarding", zap.String("bucket", cfg.Bucket))
		return built{}, fmt.Errorf("bucket %s: %w", cfg.Bucket, ErrSuperseded)
	}
	winner, stored := b.registry.InsertIfAbsent(cfg.Bucket, client)
	b.mu.Unlock()

	if stored {
		b.logger.Info("Storage client created",
			zap.String("bucket", cfg.Bucket),
			zap.String("type", cfg.StorageType()),
			zap.String("endpoint", endpoint.Redacted()),
		)
	}
	return built{client: winner, created: stored}, nil
}

// ensureBucket probes the bucket and creates it only when the probe reports it missing.
func (b *Builder) ensureBucket(ctx context.Context, driver Driver, bucket string) error {
	err := driver.HeadBucket(ctx, bucket)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return &BucketProbeError{Bucket: bucket, Err: err}
	}

	b.logger.Info("Bucket not exist, create bucket", zap.String("bucket", bucket))
	if err := driver.CreateBucket(ctx, bucket); err != nil {
		return &BucketCreateError{Bucket: bucket, Err: err}
	}
	b.metrics.observeBucketCreate()
	b.logger.Info("Bucket create success", zap.String("bucket", bucket))
	return nil
}
