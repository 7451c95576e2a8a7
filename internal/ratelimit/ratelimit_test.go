package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{"burst allows initial requests", 1, 3, 3, 3},
		{"exceeding burst blocks", 1, 2, 5, 2},
		{"single token", 0.1, 1, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.rps, tt.burst)
			defer l.Stop()

			passed := 0
			for range tt.calls {
				if l.Allow("k") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(0.1, 1)
	defer l.Stop()

	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))
	assert.True(t, l.Allow("u2"))
	assert.Equal(t, 2, l.Len())
}

func TestLimiter_Wait(t *testing.T) {
	l := New(100, 1)
	defer l.Stop()

	ctx := context.Background()
	start := time.Now()
	for range 3 {
		require.NoError(t, l.Wait(ctx, "k"))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := New(0.01, 1)
	defer l.Stop()

	require.True(t, l.Allow("k"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx, "k"))
}

func TestLimiter_Sweep(t *testing.T) {
	l := NewWithTTL(1, 1, time.Minute)
	defer l.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(45 * time.Second)
	l.Allow("fresh")
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_Every(t *testing.T) {
	l := Every(60, time.Minute, 2)
	defer l.Stop()
	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(1000, 10)
	defer l.Stop()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Allow(string(rune('a' + i%5)))
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, l.Len())
}

func TestLimiter_StopTwice(t *testing.T) {
	l := New(1, 1)
	l.Stop()
	l.Stop()
}
