// Package ratelimit provides the process-wide token bucket that gates every
// Gmail API attempt.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hal9000y/gmail-reader/internal/clock"
)

// ErrInvalidConfig is returned by New for a non-positive rate or capacity.
var ErrInvalidConfig = errors.New("invalid rate limiter configuration")

// State is a point-in-time snapshot of the bucket.
type State struct {
	Capacity            float64
	Tokens              float64
	RefillRatePerSecond float64
	LastRefill          time.Time
}

// Bucket is a token bucket safe for concurrent use. Admission and decrement
// happen under a single lock; waiting for a refill never holds it.
type Bucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	rate       float64
	lastRefill time.Time
	clock      clock.Clock
}

// Option configures a Bucket.
type Option func(*Bucket)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(b *Bucket) {
		b.clock = c
	}
}

// New creates a full bucket admitting ratePerSecond attempts per second on
// average with bursts of up to capacity.
func New(ratePerSecond float64, capacity int, opts ...Option) (*Bucket, error) {
	if ratePerSecond <= 0 || math.IsInf(ratePerSecond, 0) || math.IsNaN(ratePerSecond) {
		return nil, fmt.Errorf("%w: rate %v", ErrInvalidConfig, ratePerSecond)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidConfig, capacity)
	}

	b := &Bucket{
		capacity: float64(capacity),
		tokens:   float64(capacity),
		rate:     ratePerSecond,
		clock:    clock.Real{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lastRefill = b.clock.Now()

	return b, nil
}

// Acquire blocks until one token is available and consumes it. It returns
// early with the context error if ctx is done while waiting.
func (b *Bucket) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait := b.tryAcquire()
		if wait == 0 {
			return nil
		}

		if err := b.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// State returns a snapshot after applying any pending refill.
func (b *Bucket) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(b.clock.Now())

	return State{
		Capacity:            b.capacity,
		Tokens:              b.tokens,
		RefillRatePerSecond: b.rate,
		LastRefill:          b.lastRefill,
	}
}

// tryAcquire takes a token if one is available and returns zero, otherwise it
// returns how long the caller should wait for the next token to accrue.
func (b *Bucket) tryAcquire() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(b.clock.Now())

	if b.tokens >= 1 {
		b.tokens--
		return 0
	}

	missing := 1 - b.tokens
	wait := time.Duration(math.Ceil(missing / b.rate * float64(time.Second)))
	if wait <= 0 {
		wait = time.Nanosecond
	}

	return wait
}

func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}

	b.tokens = math.Min(b.capacity, b.tokens+elapsed.Seconds()*b.rate)
	b.lastRefill = now
}
