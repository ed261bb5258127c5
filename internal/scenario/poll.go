package scenario

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
)

// Probe checks a condition once. It returns done=true when the condition
// holds; a non-nil error stops the poll immediately.
type Probe func(ctx context.Context) (done bool, err error)

// Poll runs probe at most once per interval until it reports done, fails,
// or timeout elapses. The first probe runs without delay and the last one
// runs at the deadline, so the whole timeout is observed even when
// interval exceeds it. A probe that reports browser.ErrStaleElement is
// retried like a miss.
func Poll(ctx context.Context, timeout, interval time.Duration, probe Probe) error {
	if interval <= 0 || interval > timeout {
		interval = timeout
	}
	deadline := time.Now().Add(timeout)
	pollCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(pollCtx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// the next token lands past the deadline
			return finalProbe(ctx, deadline, interval, probe)
		}
		done, err := probe(pollCtx)
		switch {
		case errors.Is(err, browser.ErrStaleElement):
		case err != nil:
			if ctx.Err() == nil && pollCtx.Err() != nil {
				return ErrTimeout
			}
			return err
		case done:
			return nil
		}
	}
}

// finalProbe sleeps until deadline and probes one last time.
func finalProbe(ctx context.Context, deadline time.Time, interval time.Duration, probe Probe) error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	probeCtx, cancel := context.WithTimeout(ctx, interval)
	defer cancel()
	done, err := probe(probeCtx)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, browser.ErrStaleElement), err != nil && probeCtx.Err() != nil:
		return ErrTimeout
	case err != nil:
		return err
	case done:
		return nil
	}
	return ErrTimeout
}
