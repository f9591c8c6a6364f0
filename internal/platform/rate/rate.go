// Package rate provides a token bucket limiter used to pace outbound
// HTTP probes and scraping requests so remote sites do not block the tool.
package rate

import (
	"context"
	"sync"
	"time"
)

// Limiter implements a token bucket. It supports blocking (Wait) and
// non-blocking (Allow) acquisition.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	burst  int     // bucket capacity
	tokens float64
	last   time.Time
}

// New creates a limiter that refills at rate tokens per second with the
// given burst capacity.
func New(rate float64, burst int) *Limiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		rate:   rate,
		burst:  burst,
		tokens: float64(burst),
		last:   time.Now(),
	}
}

// NewInterval creates a limiter that allows one operation per delay.
// This mirrors a fixed inter-request delay, the politeness policy used
// for scraping sessions.
func NewInterval(delay time.Duration) *Limiter {
	if delay <= 0 {
		delay = time.Second
	}
	return New(float64(time.Second)/float64(delay), 1)
}

// Wait blocks until a token is available or the context is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.waitDuration()):
		}
	}
}

// Allow consumes a token if one is available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance(time.Now())
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// SetRate updates the refill rate.
func (l *Limiter) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advance(time.Now())
	l.rate = rate
}

// advance refills tokens according to elapsed time. Caller holds l.mu.
func (l *Limiter) advance(now time.Time) {
	elapsed := now.Sub(l.last).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens += elapsed * l.rate
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}
	l.last = now
}

// waitDuration estimates how long until the next token becomes available.
func (l *Limiter) waitDuration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance(time.Now())
	if l.tokens >= 1 {
		return 0
	}
	missing := 1 - l.tokens
	return time.Duration(missing / l.rate * float64(time.Second))
}
