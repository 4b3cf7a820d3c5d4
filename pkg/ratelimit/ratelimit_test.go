package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterAllowsWithinBudget(t *testing.T) {
	limiter := NewLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("1.2.3.4"), "hit %d", i)
	}
	assert.False(t, limiter.Allow("1.2.3.4"))
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(time.Minute, 1)

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"))
}

func TestLimiterWindowExpiry(t *testing.T) {
	limiter := NewLimiter(10*time.Millisecond, 1)

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, limiter.Allow("a"))
}

func TestLimiterSweepsStaleKeys(t *testing.T) {
	limiter := NewLimiter(5*time.Millisecond, 10)

	limiter.Allow("stale")
	time.Sleep(15 * time.Millisecond)
	limiter.Allow("fresh")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	_, present := limiter.hits["stale"]
	assert.False(t, present)
}
