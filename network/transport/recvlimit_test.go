package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecvLimiterAllowsBurst(t *testing.T) {
	l := NewRecvLimiter(1000, 10)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Take(ctx))
	}
}

func TestRecvLimiterHonorsCancel(t *testing.T) {
	l := NewRecvLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, l.Take(ctx))
	cancel()
	assert.Error(t, l.Take(ctx))
}

func TestRecvLimiterReload(t *testing.T) {
	l := NewRecvLimiter(1, 1)
	l.Reload(1000, 100)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 50; i++ {
		require.NoError(t, l.Take(ctx))
	}
}
