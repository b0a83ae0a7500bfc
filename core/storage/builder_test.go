package storage_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"file-storage/core/storage"
	"file-storage/core/storage/mocks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingDriver wraps a memory driver and counts bucket calls.
type countingDriver struct {
	*storage.MemoryDriver
	heads   atomic.Int32
	creates atomic.Int32
}

func (d *countingDriver) HeadBucket(ctx context.Context, bucket string) error {
	d.heads.Add(1)
	return d.MemoryDriver.HeadBucket(ctx, bucket)
}

func (d *countingDriver) CreateBucket(ctx context.Context, bucket string) error {
	d.creates.Add(1)
	return d.MemoryDriver.CreateBucket(ctx, bucket)
}

// sharedService returns a factory that always hands out the same driver,
// standing in for a single remote service.
func sharedService(t *testing.T) (*countingDriver, storage.DriverFactory, *atomic.Int32) {
	t.Helper()
	endpoint, err := url.Parse("http://localhost:9000")
	require.NoError(t, err)

	driver := &countingDriver{MemoryDriver: storage.NewMemoryDriver(endpoint, true)}
	var built atomic.Int32
	factory := func(cfg storage.Config, _ *url.URL) (storage.Driver, error) {
		built.Add(1)
		return driver, nil
	}
	return driver, factory, &built
}

func TestBuilder_CacheHit(t *testing.T) {
	_, factory, built := sharedService(t)
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))
	ctx := context.Background()

	first, err := builder.Build(ctx, validConfig())
	require.NoError(t, err)
	second, err := builder.Build(ctx, validConfig())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), built.Load())
	assert.Equal(t, 1, builder.Registry().Len())
}

func TestBuilder_DistinctBuckets(t *testing.T) {
	_, factory, built := sharedService(t)
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))
	ctx := context.Background()

	a := validConfig()
	a.Bucket = "a"
	b := validConfig()
	b.Bucket = "b"

	ca, err := builder.Build(ctx, a)
	require.NoError(t, err)
	cb, err := builder.Build(ctx, b)
	require.NoError(t, err)

	assert.NotSame(t, ca, cb)
	assert.Equal(t, "a", ca.Bucket())
	assert.Equal(t, "b", cb.Bucket())
	assert.Equal(t, int32(2), built.Load())
}

func TestBuilder_ValidationNeverContactsService(t *testing.T) {
	tests := []struct {
		name string
		edit func(*storage.Config)
	}{
		{"Endpoint", func(c *storage.Config) { c.Endpoint = "" }},
		{"AccessKey", func(c *storage.Config) { c.AccessKey = " " }},
		{"SecretKey", func(c *storage.Config) { c.SecretKey = "" }},
		{"Region", func(c *storage.Config) { c.Region = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, factory, built := sharedService(t)
			builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))

			cfg := validConfig()
			tt.edit(&cfg)
			client, err := builder.Build(context.Background(), cfg)

			var vErr *storage.ValidationError
			assert.True(t, errors.As(err, &vErr))
			assert.Nil(t, client)
			assert.Equal(t, int32(0), built.Load())
			assert.Equal(t, int32(0), driver.heads.Load())
		})
	}
}

func TestBuilder_MalformedEndpoint(t *testing.T) {
	_, factory, built := sharedService(t)
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))

	for _, endpoint := range []string{"http://exa mple.com", "gopher://host"} {
		cfg := validConfig()
		cfg.Endpoint = endpoint

		_, err := builder.Build(context.Background(), cfg)
		var eErr *storage.InvalidEndpointError
		assert.True(t, errors.As(err, &eErr), "endpoint %q", endpoint)
	}
	assert.Equal(t, int32(0), built.Load())
}

func TestBuilder_CreatesMissingBucket(t *testing.T) {
	driver, factory, _ := sharedService(t)
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))
	ctx := context.Background()

	client, err := builder.Build(ctx, validConfig())
	require.NoError(t, err)
	assert.Equal(t, int32(1), driver.creates.Load())

	exists, res := client.BucketExists(ctx, "test-bucket")
	assert.True(t, exists)
	assert.True(t, res.OK())
}

func TestBuilder_ExistingBucketNotCreated(t *testing.T) {
	driver := new(mocks.Driver)
	driver.On("HeadBucket", mock.Anything, "test-bucket").Return(nil)

	factory := func(storage.Config, *url.URL) (storage.Driver, error) { return driver, nil }
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))

	client, err := builder.Build(context.Background(), validConfig())
	require.NoError(t, err)
	assert.NotNil(t, client)

	driver.AssertNumberOfCalls(t, "HeadBucket", 1)
	driver.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything)
}

func TestBuilder_ProbeError(t *testing.T) {
	driver := new(mocks.Driver)
	driver.On("HeadBucket", mock.Anything, "test-bucket").Return(storage.ErrPermissionDenied)
	driver.On("Close").Return(nil)

	factory := func(storage.Config, *url.URL) (storage.Driver, error) { return driver, nil }
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))

	client, err := builder.Build(context.Background(), validConfig())
	assert.Nil(t, client)

	var pErr *storage.BucketProbeError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "test-bucket", pErr.Bucket)
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)

	driver.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything)
	driver.AssertCalled(t, "Close")
	assert.Equal(t, 0, builder.Registry().Len())
}

func TestBuilder_CreateError(t *testing.T) {
	driver := new(mocks.Driver)
	driver.On("HeadBucket", mock.Anything, "test-bucket").Return(storage.ErrNotFound)
	driver.On("CreateBucket", mock.Anything, "test-bucket").Return(errors.New("BucketAlreadyExists"))
	driver.On("Close").Return(nil)

	factory := func(storage.Config, *url.URL) (storage.Driver, error) { return driver, nil }
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))

	_, err := builder.Build(context.Background(), validConfig())
	var cErr *storage.BucketCreateError
	assert.True(t, errors.As(err, &cErr))
	assert.Equal(t, 0, builder.Registry().Len())
}

func TestBuilder_FactoryError(t *testing.T) {
	factory := func(storage.Config, *url.URL) (storage.Driver, error) { return nil, errors.New("boom") }
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))

	_, err := builder.Build(context.Background(), validConfig())
	assert.ErrorContains(t, err, "boom")
}

func TestBuilder_ConcurrentFirstBuild(t *testing.T) {
	driver, factory, built := sharedService(t)
	reg := prometheus.NewRegistry()
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(),
		storage.WithDriverFactory(factory),
		storage.WithMetrics(storage.NewMetrics(reg)),
	)

	const n = 50
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]*storage.Client, n)
		errs    = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = builder.Build(context.Background(), validConfig())
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, int32(1), driver.creates.Load())
	assert.Equal(t, int32(1), built.Load())
	assert.Equal(t, 1, builder.Registry().Len())

	// Every caller records exactly one build outcome
	values := counterValues(t, reg)
	assert.Equal(t, 1.0, values["file_storage_client_builds_total|created"])
	assert.Equal(t, float64(n-1), values["file_storage_client_builds_total|cached"])
	assert.Zero(t, values["file_storage_client_builds_total|failed"])
}

func TestBuilder_DifferentParamsSameBucket(t *testing.T) {
	_, factory, built := sharedService(t)
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))
	ctx := context.Background()

	first, err := builder.Build(ctx, validConfig())
	require.NoError(t, err)

	other := validConfig()
	other.Endpoint = "http://other-host:9000"
	second, err := builder.Build(ctx, other)
	require.NoError(t, err)

	// One bucket name binds one connection for the registry lifetime
	assert.Same(t, first, second)
	assert.Equal(t, "http://localhost:9000", second.Config().Endpoint)
	assert.Equal(t, int32(1), built.Load())
}

func TestBuilder_Metrics(t *testing.T) {
	_, factory, _ := sharedService(t)
	reg := prometheus.NewRegistry()
	metrics := storage.NewMetrics(reg)
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(),
		storage.WithDriverFactory(factory),
		storage.WithMetrics(metrics),
	)
	ctx := context.Background()

	client, err := builder.Build(ctx, validConfig())
	require.NoError(t, err)
	_, err = builder.Build(ctx, validConfig())
	require.NoError(t, err)
	bad := validConfig()
	bad.Region = ""
	_, _ = builder.Build(ctx, bad)

	client.ObjectExists(ctx, "missing")

	count, err := testutil.GatherAndCount(reg,
		"file_storage_client_builds_total",
		"file_storage_bucket_creates_total",
		"file_storage_operations_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	values := counterValues(t, reg)
	assert.Equal(t, 1.0, values["file_storage_client_builds_total|created"])
	assert.Equal(t, 1.0, values["file_storage_client_builds_total|cached"])
	assert.Equal(t, 1.0, values["file_storage_client_builds_total|failed"])
	assert.Equal(t, 1.0, values["file_storage_bucket_creates_total"])
	assert.Equal(t, 1.0, values["file_storage_operations_total|object_exists|not_found"])
}

func counterValues(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range m.GetLabel() {
				key += "|" + l.GetValue()
			}
			values[key] = m.GetCounter().GetValue()
		}
	}
	return values
}

// blockingDriver holds HeadBucket until release is closed or ctx is done.
type blockingDriver struct {
	*storage.MemoryDriver
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingDriver(t *testing.T) *blockingDriver {
	endpoint, err := url.Parse("http://localhost:9000")
	require.NoError(t, err)
	return &blockingDriver{
		MemoryDriver: storage.NewMemoryDriver(endpoint, true),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
}

func (d *blockingDriver) HeadBucket(ctx context.Context, bucket string) error {
	d.once.Do(func() { close(d.entered) })
	select {
	case <-d.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return d.MemoryDriver.HeadBucket(ctx, bucket)
}

func TestBuilder_CancelledCallerDoesNotFailOthers(t *testing.T) {
	driver := newBlockingDriver(t)
	factory := func(storage.Config, *url.URL) (storage.Driver, error) { return driver, nil }
	reg := prometheus.NewRegistry()
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(),
		storage.WithDriverFactory(factory),
		storage.WithMetrics(storage.NewMetrics(reg)),
	)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := builder.Build(ctxA, validConfig())
		errA <- err
	}()
	<-driver.entered

	type result struct {
		client *storage.Client
		err    error
	}
	resB := make(chan result, 1)
	go func() {
		c, err := builder.Build(context.Background(), validConfig())
		resB <- result{c, err}
	}()

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	// Give B time to join the running construction before it completes
	time.Sleep(50 * time.Millisecond)
	close(driver.release)

	b := <-resB
	require.NoError(t, b.err)
	require.NotNil(t, b.client)
	cached, ok := builder.Registry().Get("test-bucket")
	require.True(t, ok)
	assert.Same(t, cached, b.client)

	values := counterValues(t, reg)
	assert.Equal(t, 1.0, values["file_storage_client_builds_total|failed"])
	assert.Equal(t, 1.0, values["file_storage_client_builds_total|created"]+values["file_storage_client_builds_total|cached"])
}

func TestBuilder_Evict(t *testing.T) {
	driver, factory, built := sharedService(t)
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))
	ctx := context.Background()

	first, err := builder.Build(ctx, validConfig())
	require.NoError(t, err)
	assert.True(t, builder.Evict("test-bucket"))
	assert.False(t, builder.Evict("test-bucket"))
	assert.True(t, driver.Closed())

	second, err := builder.Build(ctx, validConfig())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), built.Load())
}

func TestBuilder_EvictDuringBuild(t *testing.T) {
	driver := newBlockingDriver(t)
	factory := func(storage.Config, *url.URL) (storage.Driver, error) { return driver, nil }
	builder := storage.NewBuilder(storage.NewRegistry(), zap.NewNop(), storage.WithDriverFactory(factory))

	errs := make(chan error, 1)
	go func() {
		_, err := builder.Build(context.Background(), validConfig())
		errs <- err
	}()
	<-driver.entered

	assert.False(t, builder.Evict("test-bucket"))
	close(driver.release)

	assert.ErrorIs(t, <-errs, storage.ErrSuperseded)
	assert.Equal(t, 0, builder.Registry().Len())
	assert.True(t, driver.Closed())

	// The next build starts fresh and is published
	c, err := builder.Build(context.Background(), validConfig())
	require.NoError(t, err)
	cached, ok := builder.Registry().Get("test-bucket")
	require.True(t, ok)
	assert.Same(t, cached, c)
}
