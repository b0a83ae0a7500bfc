package storage

import (
	"sort"
	"sync"
)

// Registry maps bucket names to built clients. At most one client is held per bucket.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Get returns the client registered for bucket.
func (r *Registry) Get(bucket string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[bucket]
	return c, ok
}

// InsertIfAbsent stores client under bucket unless an entry already exists.
// It returns the registered client and whether client was the one stored.
// A losing client is closed.
func (r *Registry) InsertIfAbsent(bucket string, client *Client) (*Client, bool) {
	r.mu.Lock()
	existing, ok := r.clients[bucket]
	if !ok {
		r.clients[bucket] = client
	}
	r.mu.Unlock()

	if ok {
		if existing != client {
			_ = client.Close()
		}
		return existing, false
	}
	return client, true
}

// Remove drops and closes the client registered for bucket.
func (r *Registry) Remove(bucket string) bool {
	r.mu.Lock()
	c, ok := r.clients[bucket]
	delete(r.clients, bucket)
	r.mu.Unlock()

	if ok {
		_ = c.Close()
	}
	return ok
}

// Buckets returns the registered bucket names in sorted order.
func (r *Registry) Buckets() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Clear closes and drops every registered client.
func (r *Registry) Clear() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	for _, c := range clients {
		_ = c.Close()
	}
}
