package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastPolicy(t *testing.T, opts ...Option) *Policy {
	t.Helper()

	policy, err := NewPolicy(append([]Option{WithInterval(0)}, opts...)...)
	require.NoError(t, err)

	return policy
}

func TestPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	policy := fastPolicy(t)

	calls := 0
	err := policy.Do(context.Background(), "flaky", func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_ExhaustsAttemptsAndReturnsFinalErrorUnchanged(t *testing.T) {
	policy := fastPolicy(t, WithMaxAttempts(4))

	calls := 0
	finalErr := errors.New("attempt 4 failure")
	err := policy.Do(context.Background(), "doomed", func(context.Context) error {
		calls++
		if calls == 4 {
			return finalErr
		}

		return errTransient
	})

	assert.Equal(t, 4, calls)
	// The final failure must come back unchanged, not wrapped.
	assert.Same(t, finalErr, err)
}

func TestPolicy_PredicateRejectionAbortsImmediately(t *testing.T) {
	errValidation := errors.New("bad configuration")

	policy := fastPolicy(t, WithRetryIf(OnErrors(errTransient)))

	calls := 0
	err := policy.Do(context.Background(), "misconfigured", func(context.Context) error {
		calls++
		return errValidation
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errValidation)
}

func TestOnErrors_MatchesWrappedSentinels(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), errTransient)

	predicate := OnErrors(errors.New("other"), errTransient)
	assert.True(t, predicate(wrapped))
	assert.False(t, predicate(errors.New("unrelated")))
}

func TestPolicy_ContextCancellationStopsRetrying(t *testing.T) {
	policy, err := NewPolicy() // real interval so the sleep is interruptible
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err = policy.Do(ctx, "cancelled", func(context.Context) error {
		calls++
		cancel()

		return errTransient
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValue(t *testing.T) {
	policy := fastPolicy(t)

	calls := 0
	value, err := Value(context.Background(), policy, "read", func(context.Context) (float64, error) {
		calls++
		if calls < 2 {
			return 0, errTransient
		}

		return 62.5, nil
	})

	require.NoError(t, err)
	assert.InDelta(t, 62.5, value, 1e-9)
	assert.Equal(t, 2, calls)
}

func TestNewPolicy_InvalidOptions(t *testing.T) {
	_, err := NewPolicy(WithMaxAttempts(0))
	assert.Error(t, err)

	_, err = NewPolicy(WithRetryIf(nil))
	assert.Error(t, err)
}
