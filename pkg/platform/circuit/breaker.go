// Package circuit provides a consecutive-failure circuit breaker used to
// shield callers from a flapping dependency. The anchor dispatcher wraps the
// external ledger client with one so a ledger outage degrades to queued
// retries instead of piling up timeouts.
package circuit

import (
	"sync"
	"time"
)

// State describes the breaker position.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// StateChange reports transitions so callers can log or count them exactly
// once.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker tracks consecutive failures and successes. After
// failureThreshold consecutive failures it opens; after cooldown it admits
// probe calls (half-open) and closes again after successThreshold
// consecutive successes.
type Breaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	successThreshold int
	cooldown         time.Duration

	state     State
	failures  int
	successes int
	openedAt  time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// New creates a breaker with defaults of 5 consecutive failures to open,
// 1 success to close, and a one-minute cooldown before probing.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 1,
		cooldown:         time.Minute,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

// State returns the current position, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.observedState()
}

// IsOpen reports whether calls should be shed right now.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.observedState() == StateOpen
}

// Allow reports whether a call may proceed. Half-open admits probes.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.observedState() != StateOpen
}

// RecordFailure notes a failed call. It returns whether the caller should
// fall back (the circuit is now open) and whether this call transitioned the
// breaker to open.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes = 0
	b.failures++
	if b.observedState() != StateOpen && b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = time.Now()
		return true, StateChange{Opened: true}
	}
	return b.observedState() == StateOpen, StateChange{}
}

// RecordSuccess notes a successful call. It returns whether the caller may
// resume using the primary path (the circuit is now closed) and whether this
// call transitioned the breaker to closed.
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == StateClosed {
		return true, StateChange{}
	}
	b.successes++
	if b.successes >= b.successThreshold {
		b.state = StateClosed
		b.successes = 0
		return true, StateChange{Closed: true}
	}
	return false, StateChange{}
}

// observedState folds cooldown expiry into the reported state. Callers must
// hold b.mu.
func (b *Breaker) observedState() State {
	if b.state == StateOpen && time.Since(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}
