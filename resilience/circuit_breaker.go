package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ErrCircuitOpen is returned by Execute while the circuit rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// HalfOpenMaxCalls trials must succeed to close the circuit again.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`

	// IsFailure decides which errors count against the circuit. Nil counts
	// every error.
	IsFailure     func(error) bool                  `yaml:"-" mapstructure:"-"`
	OnStateChange func(name string, from, to State) `yaml:"-" mapstructure:"-"`
}

// DefaultCircuitBreakerConfig opens after 5 failures for 30s.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{Name: name, MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenMaxCalls: 1}
}

func (c *CircuitBreakerConfig) applyDefaults() {
	d := DefaultCircuitBreakerConfig(c.Name)
	if c.MaxFailures <= 0 {
		c.MaxFailures = d.MaxFailures
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = d.HalfOpenMaxCalls
	}
}

// counts are reset on every state change.
type counts struct {
	failures  int // consecutive, while closed
	trials    int // admitted while half-open
	successes int // of those trials
}

// CircuitBreaker fails fast while a remote service keeps failing.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu     sync.Mutex
	state  State
	counts counts
	// expiry is when an open circuit starts admitting trials.
	expiry time.Time
}

// NewCircuitBreaker returns a closed breaker using config.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	config.applyDefaults()
	return &CircuitBreaker{config: config, now: time.Now}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	cb.after(err != nil && (cb.config.IsFailure == nil || cb.config.IsFailure(err)))
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.refresh()
}

func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts.failures
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.counts = counts{}
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.refresh() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.counts.trials >= cb.config.HalfOpenMaxCalls {
			return ErrCircuitOpen
		}
		cb.counts.trials++
	}
	return nil
}

func (cb *CircuitBreaker) after(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch state := cb.refresh(); {
	case failed && state == StateHalfOpen:
		cb.trip()
	case failed:
		cb.counts.failures++
		if cb.counts.failures >= cb.config.MaxFailures {
			cb.trip()
		}
	case state == StateHalfOpen:
		cb.counts.successes++
		if cb.counts.successes >= cb.config.HalfOpenMaxCalls {
			cb.setState(StateClosed)
		}
	default:
		cb.counts.failures = 0
	}
}

func (cb *CircuitBreaker) trip() {
	cb.expiry = cb.now().Add(cb.config.Timeout)
	cb.setState(StateOpen)
}

// refresh moves an expired open circuit to half-open. Callers hold mu.
func (cb *CircuitBreaker) refresh() State {
	if cb.state == StateOpen && !cb.now().Before(cb.expiry) {
		cb.setState(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setState(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.counts = counts{}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
