package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient failure")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	failure := errors.New("persistent failure")
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return failure
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	failure := errors.New("bad request")
	err := Do(context.Background(), fastConfig(5), func() error {
		calls++
		return NonRetryable(failure)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, failure)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, Config{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour}, func() error {
		calls++
		cancel()
		return errors.New("failure")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoValidatesConfig(t *testing.T) {
	noop := func() error { return nil }

	err := Do(context.Background(), Config{InitialDelay: -time.Second}, noop)
	assert.Error(t, err)

	err = Do(context.Background(), Config{InitialDelay: time.Second, MaxDelay: time.Millisecond}, noop)
	assert.Error(t, err)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient failure")
		}
		return "value", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "value", result)
	assert.Equal(t, 2, calls)
}

func TestNoneRunsExactlyOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), None(), func() error {
		calls++
		return errors.New("failure")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestReadsConfig(t *testing.T) {
	cfg := Reads()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialDelay)
	assert.True(t, cfg.AddJitter)
}

func TestNonRetryable(t *testing.T) {
	assert.Nil(t, NonRetryable(nil))

	wrapped := NonRetryable(errors.New("failure"))
	assert.True(t, IsNonRetryable(wrapped))
	assert.Contains(t, wrapped.Error(), "non-retryable")

	assert.False(t, IsNonRetryable(errors.New("failure")))
	assert.False(t, IsNonRetryable(nil))
}
