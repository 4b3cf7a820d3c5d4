package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window hit counter keyed by caller identity. It guards
// the password-gated endpoints against shared-secret guessing; state is local
// to the process and never consulted by the upload pipeline itself.
type Limiter struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	window    time.Duration
	maxHits   int
	lastSweep time.Time
}

func NewLimiter(window time.Duration, maxHits int) *Limiter {
	return &Limiter{
		hits:      make(map[string][]time.Time),
		window:    window,
		maxHits:   maxHits,
		lastSweep: time.Now(),
	}
}

// Allow records a hit for key and reports whether it stays within the window
// budget. Keys with no recent hits are swept opportunistically so the map
// stays bounded under churning client IPs.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-l.window)

	if now.Sub(l.lastSweep) > l.window {
		l.sweep(windowStart)
		l.lastSweep = now
	}

	valid := l.hits[key][:0]
	for _, hit := range l.hits[key] {
		if hit.After(windowStart) {
			valid = append(valid, hit)
		}
	}

	if len(valid) >= l.maxHits {
		l.hits[key] = valid
		return false
	}

	l.hits[key] = append(valid, now)
	return true
}

func (l *Limiter) sweep(windowStart time.Time) {
	for key, hits := range l.hits {
		live := false
		for _, hit := range hits {
			if hit.After(windowStart) {
				live = true
				break
			}
		}
		if !live {
			delete(l.hits, key)
		}
	}
}
