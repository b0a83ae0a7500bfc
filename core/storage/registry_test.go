package storage_test

import (
	"sync"
	"testing"

	"file-storage/core/storage"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newRegistryClient(t *testing.T, bucket string) (*storage.Client, *storage.MemoryDriver) {
	t.Helper()
	cfg := validConfig()
	cfg.Bucket = bucket
	endpoint, _ := cfg.EndpointURL()
	driver := storage.NewMemoryDriver(endpoint, true)
	return storage.NewClient(cfg, driver, zap.NewNop(), nil), driver
}

func TestRegistry_GetAndInsert(t *testing.T) {
	reg := storage.NewRegistry()

	_, ok := reg.Get("assets")
	assert.False(t, ok)

	first, firstDriver := newRegistryClient(t, "assets")
	got, stored := reg.InsertIfAbsent("assets", first)
	assert.True(t, stored)
	assert.Same(t, first, got)

	second, secondDriver := newRegistryClient(t, "assets")
	got, stored = reg.InsertIfAbsent("assets", second)
	assert.False(t, stored)
	assert.Same(t, first, got)

	// The losing client is released, the winner stays open
	assert.True(t, secondDriver.Closed())
	assert.False(t, firstDriver.Closed())

	cached, ok := reg.Get("assets")
	assert.True(t, ok)
	assert.Same(t, first, cached)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_ReinsertSameClient(t *testing.T) {
	reg := storage.NewRegistry()
	client, driver := newRegistryClient(t, "assets")

	reg.InsertIfAbsent("assets", client)
	got, stored := reg.InsertIfAbsent("assets", client)
	assert.False(t, stored)
	assert.Same(t, client, got)
	assert.False(t, driver.Closed())
}

func TestRegistry_ConcurrentInsert(t *testing.T) {
	reg := storage.NewRegistry()
	const n = 32

	clients := make([]*storage.Client, n)
	for i := range clients {
		clients[i], _ = newRegistryClient(t, "assets")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners = map[*storage.Client]struct{}{}
		stores  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(c *storage.Client) {
			defer wg.Done()
			got, stored := reg.InsertIfAbsent("assets", c)
			mu.Lock()
			winners[got] = struct{}{}
			if stored {
				stores++
			}
			mu.Unlock()
		}(clients[i])
	}
	wg.Wait()

	assert.Len(t, winners, 1)
	assert.Equal(t, 1, stores)
}

func TestRegistry_RemoveAndClear(t *testing.T) {
	reg := storage.NewRegistry()
	a, aDriver := newRegistryClient(t, "a")
	b, bDriver := newRegistryClient(t, "b")
	c, cDriver := newRegistryClient(t, "c")
	reg.InsertIfAbsent("b", b)
	reg.InsertIfAbsent("a", a)
	reg.InsertIfAbsent("c", c)

	assert.Equal(t, []string{"a", "b", "c"}, reg.Buckets())

	assert.True(t, reg.Remove("b"))
	assert.False(t, reg.Remove("b"))
	assert.True(t, bDriver.Closed())

	reg.Clear()
	assert.Equal(t, 0, reg.Len())
	assert.True(t, aDriver.Closed())
	assert.True(t, cDriver.Closed())
}
