package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlweb/query-core/pkg/config"
)

func newTestLimiter(t *testing.T, requestsPerWindow, windowMinutes int) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Now()}
	rl := New(config.RateLimitingConfig{
		Enabled:             true,
		RequestsPerWindow:   requestsPerWindow,
		WindowSizeInMinutes: windowMinutes,
	})
	rl.now = clock.Now
	return rl, clock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestAllow_WithinWindow(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, 1)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "fourth request in the same window must be rejected")
}

func TestAllow_ResetsAfterWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, 1)

	require.True(t, rl.Allow("a"))
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	clock.Advance(61 * time.Second)
	assert.True(t, rl.Allow("a"), "request after the window resets must be allowed")
}

func TestAllow_IdentifiersAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, 1)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "a different identifier must have its own budget")
}

func TestAllow_DisabledAlwaysAllows(t *testing.T) {
	rl := New(config.RateLimitingConfig{Enabled: false})
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow("anyone"))
	}
	status := rl.Status("anyone")
	assert.True(t, status.Allowed)
	assert.Equal(t, -1, status.Remaining)
	assert.Equal(t, time.Duration(0), status.ResetIn)
}

func TestStatus_DoesNotConsume(t *testing.T) {
	rl, _ := newTestLimiter(t, 5, 1)

	before := rl.Status("a")
	assert.Equal(t, 5, before.Remaining)

	require.True(t, rl.Allow("a"))

	after := rl.Status("a")
	assert.Equal(t, 4, after.Remaining)
	assert.True(t, after.Allowed)
}

func TestStatus_ResetInNeverNegative(t *testing.T) {
	rl, clock := newTestLimiter(t, 1, 1)
	require.True(t, rl.Allow("a"))
	clock.Advance(5 * time.Minute) // well past the window

	status := rl.Status("a")
	assert.GreaterOrEqual(t, status.ResetIn, time.Duration(0))
	assert.Equal(t, 1, status.Remaining)
}

func TestGetOrCreate_EvictsLeastRecentlyUsed(t *testing.T) {
	rl, _ := newTestLimiter(t, 10, 1)
	rl.maxEntries = 2

	rl.Allow("a")
	rl.Allow("b")
	rl.Allow("a") // touch "a" again, making "b" the least recently used
	rl.Allow("c") // should evict "b"

	rl.mu.Lock()
	_, hasB := rl.index["b"]
	_, hasA := rl.index["a"]
	_, hasC := rl.index["c"]
	rl.mu.Unlock()

	assert.False(t, hasB, "least recently used identifier should be evicted")
	assert.True(t, hasA)
	assert.True(t, hasC)
}

func TestAllow_ConcurrentDifferentIdentifiers(t *testing.T) {
	rl, _ := newTestLimiter(t, 1000, 1)

	done := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		go func(n int) {
			id := string(rune('a' + n%26))
			done <- rl.Allow(id)
		}(i)
	}
	for i := 0; i < 50; i++ {
		<-done
	}
}
