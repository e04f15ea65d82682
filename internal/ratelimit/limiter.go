package ratelimit

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Options configures the fixed-window limiter.
type Options struct {
	// Window is the quota window length.
	Window time.Duration
	// MaxRequests is the number of allowed calls per key per window.
	MaxRequests int
	// Now overrides the clock, for tests.
	Now func() time.Time
	// CleanupInterval controls stale-entry sweeping; zero disables it.
	// Cleanup is not required for correctness, it only bounds memory.
	CleanupInterval time.Duration
}

// DefaultOptions returns the production defaults: 100 requests per 15 minutes.
func DefaultOptions() Options {
	return Options{
		Window:          15 * time.Minute,
		MaxRequests:     100,
		CleanupInterval: time.Hour,
	}
}

type window struct {
	count int
	start time.Time
}

// Limiter is a per-key fixed-window request counter. Construct once at
// process start and inject wherever quota checks happen; tests can create
// isolated instances with their own clock.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	opts    Options
	stop    chan struct{}
}

// New creates a limiter with the given options.
func New(opts Options) *Limiter {
	if opts.Window <= 0 {
		opts.Window = DefaultOptions().Window
	}
	if opts.MaxRequests <= 0 {
		opts.MaxRequests = DefaultOptions().MaxRequests
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &Limiter{
		windows: make(map[string]*window),
		opts:    opts,
		stop:    make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		go l.cleanup()
	}

	return l
}

// Allow reports whether the caller identified by key may proceed. Calls
// 1..MaxRequests within a window are allowed; the next one is denied until
// the window expires.
func (l *Limiter) Allow(key string) bool {
	now := l.opts.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || now.Sub(w.start) > l.opts.Window {
		l.windows[key] = &window{count: 1, start: now}
		return true
	}

	if w.count >= l.opts.MaxRequests {
		return false
	}

	w.count++
	return true
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	close(l.stop)
}

// cleanup periodically removes windows that expired long ago.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(l.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			now := l.opts.Now()
			l.mu.Lock()
			for key, w := range l.windows {
				if now.Sub(w.start) > l.opts.Window {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientKey derives the quota key for a request: the platform-resolved client
// IP, else the first forwarded-for entry, else a shared "unknown" bucket.
func ClientKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return "unknown"
}
