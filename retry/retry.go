// Package retry wraps fallible instrument calls with a bounded,
// constant-interval retry loop.
//
// Transient serial hiccups clear within a few seconds, so the interval
// between attempts is constant rather than exponential: exponential backoff
// would only slow recovery. Jitter is added to each sleep so multiple
// pollers sharing a rig do not collide on a fixed schedule.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kwahlman/calrig/logger"
)

const (
	// DefaultMaxAttempts bounds the total number of tries, including the
	// first one.
	DefaultMaxAttempts = 10

	// DefaultInterval is the base sleep between attempts.
	DefaultInterval = 500 * time.Millisecond
)

// Policy retries calls whose error satisfies a predicate. Errors that do
// not satisfy the predicate, and the final error once attempts are
// exhausted, propagate unchanged.
type Policy struct {
	maxAttempts int
	interval    time.Duration
	retryIf     func(error) bool
	logger      logger.Logger
}

// NewPolicy creates a Policy. Without options it retries every error up to
// DefaultMaxAttempts with DefaultInterval between attempts.
func NewPolicy(opts ...Option) (*Policy, error) {
	policy := &Policy{
		maxAttempts: DefaultMaxAttempts,
		interval:    DefaultInterval,
		retryIf:     func(error) bool { return true },
		logger:      logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(policy); err != nil {
			return nil, err
		}
	}

	return policy, nil
}

// Option is a functional option for configuring a Policy.
type Option interface {
	apply(*Policy) error
}

type optFunc func(*Policy) error

func (f optFunc) apply(p *Policy) error { return f(p) }

// WithMaxAttempts sets the total number of tries, including the first.
func WithMaxAttempts(attempts int) Option {
	return optFunc(func(p *Policy) error {
		if attempts < 1 {
			return fmt.Errorf("retry: max attempts %d must be at least 1", attempts)
		}
		p.maxAttempts = attempts

		return nil
	})
}

// WithInterval sets the base sleep between attempts.
func WithInterval(interval time.Duration) Option {
	return optFunc(func(p *Policy) error {
		if interval < 0 {
			return fmt.Errorf("retry: interval %v must not be negative", interval)
		}
		p.interval = interval

		return nil
	})
}

// WithRetryIf sets the predicate deciding whether an error is retried.
// Errors rejected by the predicate propagate immediately.
func WithRetryIf(retryIf func(error) bool) Option {
	return optFunc(func(p *Policy) error {
		if retryIf == nil {
			return errors.New("retry: predicate must not be nil")
		}
		p.retryIf = retryIf

		return nil
	})
}

// WithLogger sets the logger used to record retried attempts.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(p *Policy) error {
		if l == nil {
			return errors.New("retry: logger must not be nil")
		}
		p.logger = l

		return nil
	})
}

// OnErrors builds a predicate matching any of the given sentinel errors.
// Useful for retrying a driver's transport and response faults while letting
// its validation errors abort immediately.
func OnErrors(sentinels ...error) func(error) bool {
	return func(err error) bool {
		for _, sentinel := range sentinels {
			if errors.Is(err, sentinel) {
				return true
			}
		}

		return false
	}
}

// Do runs fn until it succeeds, its error fails the predicate, attempts run
// out, or ctx is cancelled. The name labels log lines only.
func (p *Policy) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		if !p.retryIf(err) || attempt >= p.maxAttempts {
			return err
		}

		p.logger.Warn("retrying after error",
			"op", name,
			"attempt", attempt,
			"maxAttempts", p.maxAttempts,
			"error", err,
		)

		if sleepErr := p.sleep(ctx); sleepErr != nil {
			return sleepErr
		}
	}
}

// Value is Do for calls that return a result.
func Value[T any](ctx context.Context, p *Policy, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var value T

	err := p.Do(ctx, name, func(ctx context.Context) error {
		var fnErr error
		value, fnErr = fn(ctx)

		return fnErr
	})

	return value, err
}

// sleep waits the base interval plus full jitter, or until ctx is done.
func (p *Policy) sleep(ctx context.Context) error {
	delay := p.interval
	if p.interval > 0 {
		delay += rand.N(p.interval)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
