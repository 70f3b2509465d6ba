package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig configures retries with exponential backoff.
type RetryConfig struct {
	// MaxAttempts counts the first attempt.
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	// Jitter randomizes each delay by up to this fraction.
	Jitter float64 `yaml:"jitter" mapstructure:"jitter"`
	// MaxElapsed bounds the total time spent retrying. Zero keeps the
	// backoff library default.
	MaxElapsed time.Duration `yaml:"max_elapsed" mapstructure:"max_elapsed"`

	// RetryIf reports whether err is worth another attempt.
	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry runs before sleeping for the next attempt.
	OnRetry func(attempt int, err error, delay time.Duration) `yaml:"-" mapstructure:"-"`
}

// DefaultRetryConfig returns three attempts starting at 100ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries everything except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// RetryAfterHinter is implemented by errors that carry a server-provided
// delay, such as a Retry-After header.
type RetryAfterHinter interface {
	RetryAfter() time.Duration
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// hintedBackOff prefers the delay hinted by the last error.
type hintedBackOff struct {
	inner backoff.BackOff
	hint  time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	next := b.inner.NextBackOff()
	if b.hint > 0 {
		next, b.hint = b.hint, 0
	}
	return next
}

func (b *hintedBackOff) Reset() {
	b.inner.Reset()
	b.hint = 0
}

// Retry calls fn until it succeeds, returns an error RetryIf rejects, or
// MaxAttempts is reached. attempt starts at 1. The last error is returned
// unchanged.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(attempt int) (T, error)) (T, error) {
	cfg.applyDefaults()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialBackoff
	exp.MaxInterval = cfg.MaxBackoff
	exp.Multiplier = cfg.BackoffFactor
	exp.RandomizationFactor = cfg.Jitter
	bo := &hintedBackOff{inner: exp}

	attempt := 0
	op := func() (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		attempt++
		result, err := fn(attempt)
		if err == nil {
			return result, nil
		}
		if !cfg.RetryIf(err) {
			return result, backoff.Permanent(err)
		}
		var hinter RetryAfterHinter
		if errors.As(err, &hinter) {
			bo.hint = min(hinter.RetryAfter(), cfg.MaxBackoff)
		}
		return result, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
	}
	if cfg.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(cfg.MaxElapsed))
	}
	if cfg.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, delay time.Duration) {
			cfg.OnRetry(attempt, err, delay)
		}))
	}

	result, err := backoff.Retry[T](ctx, op, opts...)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return result, err
}

// RetryFunc is Retry for functions without a result.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func(attempt int) error) error {
	_, err := Retry(ctx, cfg, func(attempt int) (struct{}, error) {
		return struct{}{}, fn(attempt)
	})
	return err
}
