// internal/browser/page.go
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWaitTimeout is returned when a condition wait expires before the
	// condition holds.
	ErrWaitTimeout = errors.New("browser: wait timed out")
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("browser: session closed")
)

// Page is the minimal page-automation capability the rest of the
// application depends on. The production implementation is Session;
// tests substitute hand-written fakes.
type Page interface {
	// Navigate loads the URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// CurrentURL reports the address of the active document.
	CurrentURL(ctx context.Context) (string, error)

	// Content returns the full serialized HTML of the active document.
	Content(ctx context.Context) (string, error)

	// Evaluate runs a JavaScript expression in the page. out may be nil
	// when the result is not needed.
	Evaluate(ctx context.Context, expr string, out any) error

	// Click scrolls the first match into view and clicks it.
	Click(ctx context.Context, selector string) error

	// SetValue replaces the value of an input or textarea and fires the
	// input and change events the page's scripts listen for.
	SetValue(ctx context.Context, selector, value string) error

	// Value reads back the current value of an input or textarea.
	Value(ctx context.Context, selector string) (string, error)

	// SendKeys types text into the element without clearing it first.
	SendKeys(ctx context.Context, selector, text string) error

	// PressKey sends a single named key ("Enter", "ArrowDown") to the element.
	PressKey(ctx context.Context, selector, key string) error

	// SetChecked drives a checkbox or radio input to the desired state.
	SetChecked(ctx context.Context, selector string, checked bool) error

	// IsChecked reports the checked state of a checkbox or radio input.
	IsChecked(ctx context.Context, selector string) (bool, error)

	// WaitVisible blocks until the selector matches a visible element or
	// the timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// WaitURLContains blocks until the page URL contains the fragment or
	// the timeout elapses.
	WaitURLContains(ctx context.Context, fragment string, timeout time.Duration) error

	// Screenshot captures the viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// Settle grants client-side scripts a configured quiet period. It
	// returns early with the context error on cancellation.
	Settle(ctx context.Context) error

	// Close tears down the underlying browser.
	Close() error
}
