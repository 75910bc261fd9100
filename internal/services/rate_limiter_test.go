package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimRateLimiterBurst(t *testing.T) {
	rl := NewSimRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("client-a"), "request %d within burst", i+1)
	}
	assert.False(t, rl.Allow("client-a"), "burst exhausted")
}

func TestSimRateLimiterPerClient(t *testing.T) {
	rl := NewSimRateLimiter(1, 1)

	assert.True(t, rl.Allow("client-a"))
	assert.False(t, rl.Allow("client-a"))

	// A different client has its own budget.
	assert.True(t, rl.Allow("client-b"))
	assert.Equal(t, 2, rl.TrackedClients())
}
