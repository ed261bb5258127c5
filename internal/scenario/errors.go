package scenario

import (
	"errors"
	"fmt"
	"time"
)

// Failure kinds. Every step error a runner reports matches one of these
// with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrAssertionFailed = errors.New("assertion failed")
	ErrMissingElement  = errors.New("missing element")
)

// ErrTimeout is returned by Poll when the probe never succeeded.
var ErrTimeout = errors.New("wait timed out")

// NotFoundError reports a locator that never resolved within its wait.
type NotFoundError struct {
	Locator string
	Index   int
	Timeout time.Duration
}

func (e *NotFoundError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("locator %q (match #%d) not found within %s", e.Locator, e.Index, e.Timeout)
	}
	return fmt.Sprintf("locator %q not found within %s", e.Locator, e.Timeout)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AssertionError reports an observed value that differs from the expected one.
type AssertionError struct {
	Step     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %q, got %q", e.Step, e.Expected, e.Actual)
}

func (e *AssertionError) Is(target error) bool { return target == ErrAssertionFailed }

// MissingElementError reports a row-scoped action whose row lookup matched
// nothing.
type MissingElementError struct {
	Step string
	What string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("%s: %s is undefined", e.Step, e.What)
}

func (e *MissingElementError) Is(target error) bool { return target == ErrMissingElement }

// Kind names the failure class of err for reports and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAssertionFailed):
		return "assertion_failed"
	case errors.Is(err, ErrMissingElement):
		return "missing_element"
	default:
		return "error"
	}
}
