package transport

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// RecvLimiter implements a token bucket rate limiter for incoming
// datagrams. Transports call Take before delivering each datagram, which
// bounds the load a chatty client can place on the command engine while
// still absorbing short bursts.
//
// The limiter is safe for configuration reloads: Reload atomically swaps
// the underlying bucket, so concurrent Take calls see either the old or
// the new limit, never a torn state.
type RecvLimiter struct {
	limiter atomic.Pointer[rate.Limiter]
}

// NewRecvLimiter creates a limiter allowing `limit` datagrams per second
// with the given burst capacity.
func NewRecvLimiter(limit int, burst int) *RecvLimiter {
	l := &RecvLimiter{}
	l.limiter.Store(rate.NewLimiter(rate.Limit(limit), burst))
	return l
}

// Take blocks until a token is available or ctx is cancelled.
func (l *RecvLimiter) Take(ctx context.Context) error {
	return l.limiter.Load().Wait(ctx)
}

// Reload updates the rate and burst size at runtime.
func (l *RecvLimiter) Reload(limit int, burst int) {
	l.limiter.Store(rate.NewLimiter(rate.Limit(limit), burst))
}
