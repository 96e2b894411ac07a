package core

import (
	"context"
	"sync"
	"time"
)

// Interval is a recurring timer bound to a host's lifetime.
// Its callback runs outside the host lock; use Host.Do to touch element
// state from it.
type Interval struct {
	period time.Duration
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// Every starts a timer that calls fn once per period until Stop is called
// or the host disconnects. fn receives the host lifetime context and the
// interval itself, so it can tell whether it has been replaced.
func (h *Host) Every(period time.Duration, fn func(ctx context.Context, iv *Interval)) *Interval {
	iv := &Interval{
		period: period,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go iv.run(h.lifetime, fn)
	return iv
}

func (iv *Interval) run(ctx context.Context, fn func(ctx context.Context, iv *Interval)) {
	defer close(iv.done)

	ticker := time.NewTicker(iv.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case <-iv.stop:
				return
			default:
			}
			fn(ctx, iv)
		case <-iv.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Period returns the tick period.
func (iv *Interval) Period() time.Duration {
	return iv.period
}

// Stop cancels the timer. It does not wait for a running callback, so it
// is safe to call with the host lock held.
func (iv *Interval) Stop() {
	if iv == nil {
		return
	}
	iv.once.Do(func() { close(iv.stop) })
}

// Stopped reports whether Stop has been called.
func (iv *Interval) Stopped() bool {
	if iv == nil {
		return true
	}
	select {
	case <-iv.stop:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the timer goroutine has exited.
func (iv *Interval) Done() <-chan struct{} {
	return iv.done
}
