package server

import (
	"sync"
	"time"
)

// RateLimiter counts requests per key. Each admitted request holds one unit
// of the key's budget until its cooldown elapses.
type RateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{counts: make(map[string]int)}
}

// Allow admits a request for key if fewer than limit requests were admitted
// within the last cooldown. A limit of 0 disables limiting.
func (rl *RateLimiter) Allow(key string, limit int, cooldown time.Duration) bool {
	if limit == 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.counts[key] >= limit {
		return false
	}
	rl.counts[key]++
	time.AfterFunc(cooldown, func() { rl.release(key) })
	return true
}

func (rl *RateLimiter) release(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.counts[key]--
	if rl.counts[key] <= 0 {
		delete(rl.counts, key)
	}
}

// Outstanding returns how much of key's budget is in use.
func (rl *RateLimiter) Outstanding(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.counts[key]
}
