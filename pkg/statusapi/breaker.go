package statusapi

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker refuses requests.
var ErrCircuitOpen = errors.New("status API circuit open")

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker stops calling the API after maxFailures consecutive upstream
// failures. After cooldown a single trial request is let through; its
// outcome closes or reopens the circuit.
type Breaker struct {
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	state    State
	failures int
	openedAt time.Time
	trial    bool
	onChange func(from, to State)

	mu sync.Mutex
}

// NewBreaker creates a breaker. maxFailures below one disables it.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	if b == nil {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a request may be made now.
func (b *Breaker) Allow() error {
	if b == nil || b.maxFailures < 1 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.set(StateHalfOpen)
		b.trial = true
		return nil
	case StateHalfOpen:
		if b.trial {
			return ErrCircuitOpen
		}
		b.trial = true
	}
	return nil
}

// Record feeds the outcome of a request allowed by Allow. Only upstream
// failures count; a nil err is a success.
func (b *Breaker) Record(err error) {
	if b == nil || b.maxFailures < 1 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trial = false
	if err == nil {
		b.failures = 0
		b.set(StateClosed)
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.openedAt = b.now()
		b.set(StateOpen)
	}
}

// Release gives back a request allowed by Allow without judging the API,
// as when the caller gave up.
func (b *Breaker) Release() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trial = false
}

func (b *Breaker) set(s State) {
	if b.state == s {
		return
	}
	from := b.state
	b.state = s
	if b.onChange != nil {
		b.onChange(from, s)
	}
}
