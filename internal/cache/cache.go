package cache

import (
	"slices"
	"sync"
	"time"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

// Info is a snapshot of cache bookkeeping for diagnostics.
type Info struct {
	// Size is the number of stored entries, including not-yet-evicted
	// expired ones.
	Size int
	// TTL is the current validity window.
	TTL time.Duration
	// Keys lists the stored installation ids in sorted order.
	Keys []string
}

// entry pairs stored metadata with its write timestamp. The TTL is not
// baked in here: it is evaluated at read time, so SetTTL applies to
// entries stored before the change.
type entry struct {
	services domain.InstallationServices
	storedAt time.Time
}

// InstallationCache is a TTL-bounded map from installation id to its
// panel/capabilities metadata. Eviction is lazy: expired entries are
// removed by the read that discovers them, there is no background sweeper.
// Latest write wins per id.
//
// Concurrent identical misses are not coalesced; each caller will hit the
// upstream independently. At bridge polling rates this is not worth a
// singleflight layer.
type InstallationCache struct {
	// mu protects entries and ttl.
	mu sync.Mutex
	// entries maps installation id to its stored metadata.
	entries map[string]entry
	// ttl is the validity window applied at read time.
	ttl time.Duration
	// now returns the current time, replaceable in tests.
	now func() time.Time
}

// New creates an empty cache with the given validity window.
func New(ttl time.Duration) *InstallationCache {
	return &InstallationCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the stored metadata for the installation if it is still
// within the TTL. An expired entry is evicted and reported as a miss.
func (c *InstallationCache) Get(installationID string) (domain.InstallationServices, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[installationID]
	if !ok {
		return domain.InstallationServices{}, false
	}

	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, installationID)

		return domain.InstallationServices{}, false
	}

	return e.services, true
}

// Set stores metadata for the installation, replacing any previous entry.
func (c *InstallationCache) Set(installationID string, services domain.InstallationServices) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[installationID] = entry{
		services: services,
		storedAt: c.now(),
	}
}

// Clear removes the entry for one installation. Missing ids are a no-op.
func (c *InstallationCache) Clear(installationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, installationID)
}

// ClearAll removes every entry.
func (c *InstallationCache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

// SetTTL changes the validity window. The new TTL applies to all future
// reads, including entries stored before the change.
func (c *InstallationCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
}

// TTL returns the current validity window.
func (c *InstallationCache) TTL() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ttl
}

// Info returns a bookkeeping snapshot with keys in sorted order.
func (c *InstallationCache) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return Info{
		Size: len(c.entries),
		TTL:  c.ttl,
		Keys: keys,
	}
}
