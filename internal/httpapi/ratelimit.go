package httpapi

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ReaderRateLimiter keeps one token bucket per reader so a misbehaving
// (or replayed) reader cannot flood the tap endpoint.  Idle buckets are
// dropped by a background cleanup loop.
type ReaderRateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*readerLimiter
	stopCh   chan struct{}
}

type readerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleExpiry      = 10 * time.Minute
)

func NewReaderRateLimiter(perSecond float64, burst int) *ReaderRateLimiter {
	if perSecond <= 0 {
		perSecond = 5
	}
	if burst <= 0 {
		burst = 10
	}

	rl := &ReaderRateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*readerLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *ReaderRateLimiter) Allow(readerID string) bool {
	readerID = strings.TrimSpace(readerID)
	if readerID == "" {
		// Let validation reject it with a proper error instead.
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[readerID]
	if !ok {
		l = &readerLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[readerID] = l
	}
	l.lastSeen = time.Now()

	return l.limiter.Allow()
}

func (rl *ReaderRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *ReaderRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-limiterIdleExpiry)
			rl.mu.Lock()
			for id, l := range rl.limiters {
				if l.lastSeen.Before(cutoff) {
					delete(rl.limiters, id)
				}
			}
			rl.mu.Unlock()
		}
	}
}
