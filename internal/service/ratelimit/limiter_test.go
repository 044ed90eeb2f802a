package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstThenDeny(t *testing.T) {
	l := New(0.001, 2)
	assert.True(t, l.Allow("scanner"))
	assert.True(t, l.Allow("scanner"))
	assert.False(t, l.Allow("scanner"))
	// separate bucket per key
	assert.True(t, l.Allow("other"))
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := New(0.001, 1)
	require.NoError(t, l.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "k"))
}

func TestLimiter_NonPositiveRateIsUnlimited(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("k"))
	}
}
