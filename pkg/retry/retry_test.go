package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	delays := &[]time.Duration{}
	old := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	t.Cleanup(func() { sleep = old })
	return delays
}

func TestDoBackoffDoublesPerAttempt(t *testing.T) {
	delays := stubSleep(t)

	calls := 0
	err := Do(context.Background(), Config{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond}, func() error {
		calls++
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, *delays)
}

func TestDoStopsOnSuccess(t *testing.T) {
	delays := stubSleep(t)

	calls := 0
	err := Do(context.Background(), Config{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond}, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, *delays, 1)
}

func TestDoTerminalErrorShortCircuits(t *testing.T) {
	delays := stubSleep(t)

	fatal := errors.New("token gone")
	calls := 0
	err := Do(context.Background(), Config{
		MaxAttempts: 5,
		BaseDelay:   50 * time.Millisecond,
		IsTerminal:  func(err error) bool { return errors.Is(err, fatal) },
	}, func() error {
		calls++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls, "terminal errors must not be retried")
	assert.Empty(t, *delays)
}

func TestDoSurfacesLastError(t *testing.T) {
	stubSleep(t)

	last := errors.New("still down")
	calls := 0
	err := Do(context.Background(), Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errors.New("down")
		}
		return last
	})

	assert.ErrorIs(t, err, last)
}

func TestDoHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, func() error {
		calls++
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
