package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterStore decides whether a caller may proceed. Keys are caller
// principals, falling back to remote IPs for anonymous requests.
type LimiterStore interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiter manages per-key token buckets in process.
type LocalLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	stop     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates a limiter allowing perMinute requests with
// the given burst per key.
func NewLocalLimiter(perMinute, burst int) *LocalLimiter {
	l := &LocalLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (l *LocalLimiter) Close() error {
	l.stopOnce.Do(func() { close(l.stop) })
	return nil
}

// Allow implements LimiterStore.
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()
	return v.limiter.Allow(), nil
}

// cleanup evicts keys idle for more than ten minutes until Close.
func (l *LocalLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			for key, v := range l.visitors {
				if time.Since(v.lastSeen) > 10*time.Minute {
					delete(l.visitors, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
