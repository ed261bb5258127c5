package scenario

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
)

func TestPoll(t *testing.T) {
	ctx := context.Background()

	t.Run("first probe is immediate", func(t *testing.T) {
		calls := 0
		start := time.Now()
		err := Poll(ctx, time.Second, 200*time.Millisecond, func(context.Context) (bool, error) {
			calls++
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("times out within its bound", func(t *testing.T) {
		calls := 0
		start := time.Now()
		err := Poll(ctx, 50*time.Millisecond, 10*time.Millisecond, func(context.Context) (bool, error) {
			calls++
			return false, nil
		})
		assert.ErrorIs(t, err, ErrTimeout)
		assert.GreaterOrEqual(t, calls, 2)
		assert.LessOrEqual(t, calls, 8)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("probe errors end the poll", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := Poll(ctx, time.Second, time.Millisecond, func(context.Context) (bool, error) {
			calls++
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("stale elements are misses", func(t *testing.T) {
		calls := 0
		err := Poll(ctx, time.Second, time.Millisecond, func(context.Context) (bool, error) {
			calls++
			if calls < 3 {
				return false, fmt.Errorf("read: %w", browser.ErrStaleElement)
			}
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("parent cancellation is not a timeout", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := Poll(cctx, time.Second, time.Millisecond, func(context.Context) (bool, error) {
			return false, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrTimeout)
	})

	t.Run("zero interval probes at start and deadline", func(t *testing.T) {
		calls := 0
		start := time.Now()
		err := Poll(ctx, 30*time.Millisecond, 0, func(context.Context) (bool, error) {
			calls++
			return false, nil
		})
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Equal(t, 2, calls)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("interval longer than timeout still waits out the timeout", func(t *testing.T) {
		calls := 0
		start := time.Now()
		err := Poll(ctx, 200*time.Millisecond, 250*time.Millisecond, func(context.Context) (bool, error) {
			calls++
			return time.Since(start) >= 50*time.Millisecond, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	})

	t.Run("last interval before the deadline is probed", func(t *testing.T) {
		start := time.Now()
		err := Poll(ctx, 100*time.Millisecond, 40*time.Millisecond, func(context.Context) (bool, error) {
			return time.Since(start) >= 90*time.Millisecond, nil
		})
		require.NoError(t, err)
	})

	t.Run("cancellation during the final wait", func(t *testing.T) {
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		err := Poll(cctx, time.Second, 2*time.Second, func(context.Context) (bool, error) {
			return false, nil
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, ErrTimeout)
	})
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "not_found", Kind(fmt.Errorf("wrap: %w", &NotFoundError{Locator: "#x"})))
	assert.Equal(t, "assertion_failed", Kind(&AssertionError{Step: "s", Expected: "a", Actual: "b"}))
	assert.Equal(t, "missing_element", Kind(&MissingElementError{Step: "s", What: "row r"}))
	assert.Equal(t, "error", Kind(errors.New("other")))

	assert.Equal(t, `locator "#x" (match #2) not found within 1s`, (&NotFoundError{Locator: "#x", Index: 2, Timeout: time.Second}).Error())
	assert.Equal(t, `s: row r is undefined`, (&MissingElementError{Step: "s", What: "row r"}).Error())
}
