package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

// testClock drives the cache's notion of time without sleeping.
type testClock struct {
	current time.Time
}

func (c *testClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func (c *testClock) nowFunc() func() time.Time {
	return func() time.Time { return c.current }
}

// newTestCache returns a cache wired to a controllable clock.
func newTestCache(ttl time.Duration) (*InstallationCache, *testClock) {
	clock := &testClock{current: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)}
	c := New(ttl)
	c.now = clock.nowFunc()

	return c, clock
}

func services(id string) domain.InstallationServices {
	return domain.InstallationServices{
		InstallationID: id,
		Panel:          "PROTOCOL",
		Capabilities:   "caps-token",
	}
}

// TestCache_GetWithinTTL returns the stored value while age <= TTL.
func TestCache_GetWithinTTL(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(60 * time.Second)
	c.Set("A", services("A"))

	clock.advance(60 * time.Second)

	got, ok := c.Get("A")
	require.True(t, ok)
	require.Equal(t, services("A"), got)
}

// TestCache_ExpiredEntryEvictedOnRead verifies lazy eviction:
// ttl=60s, read at +61s is a miss and the entry count drops to 0.
func TestCache_ExpiredEntryEvictedOnRead(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(60 * time.Second)
	c.Set("A", services("A"))

	clock.advance(61 * time.Second)

	_, ok := c.Get("A")
	require.False(t, ok)
	require.Equal(t, 0, c.Info().Size)
}

// TestCache_MissOnAbsentKey reports a miss without creating state.
func TestCache_MissOnAbsentKey(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(time.Minute)
	_, ok := c.Get("absent")
	require.False(t, ok)
	require.Equal(t, 0, c.Info().Size)
}

// TestCache_LatestWriteWins replaces the previous entry for the same id.
func TestCache_LatestWriteWins(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(time.Minute)
	c.Set("A", services("A"))

	clock.advance(30 * time.Second)

	updated := services("A")
	updated.Capabilities = "caps-token-v2"
	c.Set("A", updated)

	// The rewrite refreshed storedAt, so the entry survives past the
	// original write's expiry.
	clock.advance(45 * time.Second)

	got, ok := c.Get("A")
	require.True(t, ok)
	require.Equal(t, "caps-token-v2", got.Capabilities)
	require.Equal(t, 1, c.Info().Size)
}

// TestCache_SetTTLAppliesToStoredEntries pins the retroactive TTL contract:
// shrinking the TTL expires entries that were written under a longer one.
func TestCache_SetTTLAppliesToStoredEntries(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(10 * time.Minute)
	c.Set("A", services("A"))

	clock.advance(2 * time.Minute)
	c.SetTTL(time.Minute)

	_, ok := c.Get("A")
	require.False(t, ok)

	// And the other direction: growing the TTL revives nothing that was
	// already evicted, but keeps aged entries readable.
	c.Set("B", services("B"))
	clock.advance(5 * time.Minute)
	c.SetTTL(10 * time.Minute)

	_, ok = c.Get("B")
	require.True(t, ok)
}

// TestCache_ClearOneAndAll removes a single entry or everything.
func TestCache_ClearOneAndAll(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(time.Minute)
	c.Set("A", services("A"))
	c.Set("B", services("B"))

	c.Clear("A")
	_, ok := c.Get("A")
	require.False(t, ok)
	_, ok = c.Get("B")
	require.True(t, ok)

	c.ClearAll()
	require.Equal(t, 0, c.Info().Size)

	// Clearing an absent id is a no-op.
	c.Clear("ghost")
}

// TestCache_Info reports size, ttl and sorted keys.
func TestCache_Info(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(90 * time.Second)
	c.Set("B", services("B"))
	c.Set("A", services("A"))

	info := c.Info()
	require.Equal(t, 2, info.Size)
	require.Equal(t, 90*time.Second, info.TTL)
	require.Equal(t, []string{"A", "B"}, info.Keys)
}
