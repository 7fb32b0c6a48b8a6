package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrOpenCircuit is returned without attempting the call while the breaker
// is open or out of half-open trial permits. Callers route it to a fallback.
var ErrOpenCircuit = errors.New("circuit breaker is open")

// State is the breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// CircuitBreaker guards one named downstream dependency. Outcomes of the
// last windowSize calls are kept in a ring; when the observed failure ratio
// reaches the threshold (given a minimum sample size) the breaker opens and
// rejects calls immediately until the open timeout elapses. It then admits a
// bounded number of trial calls: all must succeed to close the breaker and
// reset the window, any failure reopens it and restarts the timer.
//
// State transitions are atomic with respect to concurrent callers; the
// guarded call itself runs outside the lock.
type CircuitBreaker struct {
	name string

	mu             sync.Mutex
	state          State
	window         []bool // true = failure
	windowIdx      int
	windowFilled   bool
	openedAt       time.Time
	trialsStarted  int
	trialSuccesses int

	windowSize       int
	minSamples       int
	failureThreshold float64
	openTimeout      time.Duration
	halfOpenTrials   int
	now              func() time.Time
}

type BreakerOption func(*CircuitBreaker)

func WithWindowSize(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.windowSize = n }
}

func WithMinSamples(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.minSamples = n }
}

func WithFailureThreshold(ratio float64) BreakerOption {
	return func(cb *CircuitBreaker) { cb.failureThreshold = ratio }
}

func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(cb *CircuitBreaker) { cb.openTimeout = d }
}

func WithHalfOpenTrials(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.halfOpenTrials = n }
}

// WithClock overrides the breaker's time source
func WithClock(now func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// NewCircuitBreaker creates a breaker for the named dependency
func NewCircuitBreaker(name string, opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             name,
		state:            StateClosed,
		windowSize:       10,
		minSamples:       5,
		failureThreshold: 0.5,
		openTimeout:      10 * time.Second,
		halfOpenTrials:   3,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	cb.window = make([]bool, cb.windowSize)
	return cb
}

// Name returns the guarded dependency name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current breaker state, promoting open to half-open when
// the open timeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state
}

// Execute runs fn under the breaker policy. While open it fails immediately
// with ErrOpenCircuit, never invoking fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err != nil)
	return err
}

// admit decides whether a call may proceed in the current state
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.refresh()

	switch cb.state {
	case StateClosed:
		return nil
	case StateHalfOpen:
		if cb.trialsStarted >= cb.halfOpenTrials {
			return errors.Wrapf(ErrOpenCircuit, "%s: no trial permits left", cb.name)
		}
		cb.trialsStarted++
		return nil
	default:
		return errors.Wrapf(ErrOpenCircuit, "%s", cb.name)
	}
}

// record feeds one call outcome back into the breaker
func (cb *CircuitBreaker) record(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.observe(failed)
		if cb.shouldTrip() {
			cb.trip()
		}
	case StateHalfOpen:
		if failed {
			cb.trip()
			return
		}
		cb.trialSuccesses++
		if cb.trialSuccesses >= cb.halfOpenTrials {
			cb.reset()
		}
	case StateOpen:
		// Outcome of a call admitted just before the breaker tripped;
		// the window is stale once open, drop it.
	}
}

// refresh promotes open to half-open once the wait has elapsed.
// Caller must hold the lock.
func (cb *CircuitBreaker) refresh() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.openTimeout {
		cb.state = StateHalfOpen
		cb.trialsStarted = 0
		cb.trialSuccesses = 0
	}
}

func (cb *CircuitBreaker) observe(failed bool) {
	cb.window[cb.windowIdx] = failed
	cb.windowIdx++
	if cb.windowIdx == cb.windowSize {
		cb.windowIdx = 0
		cb.windowFilled = true
	}
}

func (cb *CircuitBreaker) shouldTrip() bool {
	samples := cb.windowIdx
	if cb.windowFilled {
		samples = cb.windowSize
	}
	if samples < cb.minSamples {
		return false
	}

	failures := 0
	for i := 0; i < samples; i++ {
		if cb.window[i] {
			failures++
		}
	}
	return float64(failures)/float64(samples) >= cb.failureThreshold
}

func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.trialsStarted = 0
	cb.trialSuccesses = 0
}

func (cb *CircuitBreaker) reset() {
	cb.state = StateClosed
	cb.windowIdx = 0
	cb.windowFilled = false
	for i := range cb.window {
		cb.window[i] = false
	}
}
