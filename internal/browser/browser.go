// Package browser defines the driver-neutral page and element handles the
// scenario runner works against. Implementations live in the pwdriver,
// cdpdriver and htmldriver subpackages.
package browser

import (
	"context"
	"errors"
)

// ErrStaleElement is returned when an element handle no longer points at a
// node in the current document, typically after a navigation.
var ErrStaleElement = errors.New("stale element")

// ErrNotInteractive is returned when a driver cannot perform an action on
// the element it was given.
var ErrNotInteractive = errors.New("element is not interactive")

// Page is one browser tab. Query never waits: it reports the elements that
// match right now, possibly none. Waiting is the caller's job.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Query(ctx context.Context, selector string) ([]Element, error)
	URL() string
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Element is a handle to a node on the current page.
type Element interface {
	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	// Type appends text to the element's value, the way key presses would.
	Type(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	Attribute(ctx context.Context, name string) (string, bool, error)
	Query(ctx context.Context, selector string) ([]Element, error)
}

// First returns the first element matching selector, or nil when nothing
// matches at the moment of the call.
func First(ctx context.Context, p Page, selector string) (Element, error) {
	els, err := p.Query(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}
