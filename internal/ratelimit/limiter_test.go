package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests advance time manually.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(max int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := New(Options{Window: window, MaxRequests: max, Now: clock.Now})
	return l, clock
}

func TestAllowUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(100, 15*time.Minute)

	for i := 1; i <= 100; i++ {
		assert.True(t, l.Allow("1.2.3.4"), "call %d should be allowed", i)
	}
	assert.False(t, l.Allow("1.2.3.4"), "call 101 should be denied")
	assert.False(t, l.Allow("1.2.3.4"), "further calls stay denied")
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	assert.True(t, l.Allow("b"))
}

func TestWindowReset(t *testing.T) {
	l, clock := newTestLimiter(3, 15*time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("k"))
	}
	assert.False(t, l.Allow("k"))

	clock.Advance(15*time.Minute + time.Second)

	assert.True(t, l.Allow("k"), "exhausted key is allowed again after the window passes")
}

func TestConcurrentAllow(t *testing.T) {
	l, _ := newTestLimiter(1000, time.Minute)

	var wg sync.WaitGroup
	allowed := make(chan bool, 2000)
	for i := 0; i < 2000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("shared")
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	assert.Equal(t, 1000, count, "exactly the quota is admitted under contention")
}

func TestDefaultsApplied(t *testing.T) {
	l := New(Options{})
	defer l.Stop()

	assert.Equal(t, 15*time.Minute, l.opts.Window)
	assert.Equal(t, 100, l.opts.MaxRequests)
}

func TestManyKeysDoNotInterfere(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("ip-%d", i)
		assert.True(t, l.Allow(key))
		assert.False(t, l.Allow(key))
	}
}
