package capture

import (
	"context"
	"sync"
	"time"
)

// MinInterval is the minimum spacing between capture starts.
const MinInterval = 500 * time.Millisecond

// Throttle spaces captures at least interval apart. Slots are reserved under
// a lock, so concurrent callers queue up instead of starting together.
type Throttle struct {
	interval time.Duration
	clock    func() time.Time
	sleeper  func(context.Context, time.Duration) error

	mu   sync.Mutex
	last time.Time
}

// NewThrottle builds a throttle. Nil clock and sleeper use real time.
func NewThrottle(interval time.Duration, clock func() time.Time, sleeper func(context.Context, time.Duration) error) *Throttle {
	if clock == nil {
		clock = time.Now
	}
	if sleeper == nil {
		sleeper = defaultSleeper
	}
	return &Throttle{
		interval: interval,
		clock:    clock,
		sleeper:  sleeper,
	}
}

// Reserve claims the next start slot and returns how long the caller must
// wait before using it.
func (t *Throttle) Reserve() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	if t.last.IsZero() {
		t.last = now
		return 0
	}
	next := t.last.Add(t.interval)
	if !now.Before(next) {
		t.last = now
		return 0
	}
	t.last = next
	return next.Sub(now)
}

// Wait reserves a slot and sleeps until it arrives.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.sleeper(ctx, t.Reserve())
}

func defaultSleeper(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
