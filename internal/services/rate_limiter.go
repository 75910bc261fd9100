package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SimRateLimiter throttles simulation requests per client so one spectator
// cannot monopolize the engine. Limiters are created lazily per key and
// swept when idle.
type SimRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*simLimiterEntry
	rps      rate.Limit
	burst    int
}

type simLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewSimRateLimiter creates a limiter allowing rps requests per second with
// the given burst per client key.
func NewSimRateLimiter(rps float64, burst int) *SimRateLimiter {
	rl := &SimRateLimiter{
		limiters: make(map[string]*simLimiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go rl.sweep()
	return rl
}

// Allow reports whether the given client key may make a request now.
func (rl *SimRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &simLimiterEntry{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

// TrackedClients returns how many client keys currently hold a limiter.
func (rl *SimRateLimiter) TrackedClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// sweep drops limiters that have been idle for several minutes.
func (rl *SimRateLimiter) sweep() {
	for range time.Tick(time.Minute) {
		cutoff := time.Now().Add(-5 * time.Minute)
		rl.mu.Lock()
		for key, entry := range rl.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(rl.limiters, key)
			}
		}
		rl.mu.Unlock()
	}
}
