// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/xkilldash9x/linkforge-cli/internal/config"
	"go.uber.org/zap"
)

// Session drives a single headless Chrome tab through chromedp. It
// implements the Page capability.
type Session struct {
	ctx          context.Context
	allocCancel  context.CancelFunc
	tabCancel    context.CancelFunc
	cfg          config.BrowserConfig
	logger       *zap.Logger
	closed       atomic.Bool
	urlPollEvery time.Duration
}

var _ Page = (*Session)(nil)

// allocatorOptions translates the browser configuration into chromedp exec
// allocator options.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	for _, arg := range cfg.Args {
		name, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	return opts
}

// NewSession launches a browser and opens a fresh tab.
func NewSession(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so launch failures surface
	// here instead of on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	logger.Debug("Browser session started",
		zap.Bool("headless", cfg.Headless),
		zap.Int("viewport_width", cfg.ViewportWidth),
		zap.Int("viewport_height", cfg.ViewportHeight))

	return &Session{
		ctx:          tabCtx,
		allocCancel:  allocCancel,
		tabCancel:    tabCancel,
		cfg:          cfg,
		logger:       logger.Named("browser"),
		urlPollEvery: 100 * time.Millisecond,
	}, nil
}

// combineContext derives a context from the session's tab context that is
// additionally canceled when the caller's context is done.
func (s *Session) combineContext(ctx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(s.ctx)
	if ctx == nil {
		return combined, cancel
	}
	stop := context.AfterFunc(ctx, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}

// run executes chromedp actions with the caller's cancellation and the given
// timeout applied.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	opCtx, opCancel := s.combineContext(ctx)
	defer opCancel()

	if timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(opCtx, timeout)
		defer cancel()
	}
	return chromedp.Run(opCtx, actions...)
}

func (s *Session) actionTimeout() time.Duration {
	if s.cfg.ActionTimeout > 0 {
		return s.cfg.ActionTimeout
	}
	return 15 * time.Second
}

// Navigate loads the URL, waits for the body to be ready, then grants the
// configured settle period.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))

	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	err := s.run(ctx, timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("navigation to %s timed out after %s: %w", url, timeout, err)
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return s.Settle(ctx)
}

// CurrentURL reports the address of the active document.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, s.actionTimeout(), chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return url, nil
}

// Content returns the serialized HTML of the active document.
func (s *Session) Content(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.actionTimeout(), chromedp.ActionFunc(func(ctx context.Context) error {
		root, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(root.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("reading page content: %w", err)
	}
	return html, nil
}

// Evaluate runs a JavaScript expression in the page.
func (s *Session) Evaluate(ctx context.Context, expr string, out any) error {
	if err := s.run(ctx, s.actionTimeout(), chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluate failed: %w", err)
	}
	return nil
}

// Click scrolls the first match into view and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("Clicking element", zap.String("selector", selector))
	err := s.run(ctx, s.actionTimeout(),
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("click failed for %q: %w", selector, err)
	}
	return nil
}

// SetValue replaces the element's value and dispatches the input and change
// events so framework-bound forms observe the edit.
func (s *Session) SetValue(ctx context.Context, selector, value string) error {
	s.logger.Debug("Setting value", zap.String("selector", selector), zap.Int("length", len(value)))
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.focus();
		el.value = %q;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		el.blur();
		return true;
	})()`, selector, value)

	var ok bool
	if err := s.Evaluate(ctx, expr, &ok); err != nil {
		return fmt.Errorf("set value failed for %q: %w", selector, err)
	}
	if !ok {
		return fmt.Errorf("set value: no element matches %q", selector)
	}
	return nil
}

// Value reads back the element's current value.
func (s *Session) Value(ctx context.Context, selector string) (string, error) {
	var value string
	if err := s.run(ctx, s.actionTimeout(), chromedp.Value(selector, &value, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading value of %q: %w", selector, err)
	}
	return value, nil
}

// SendKeys types text into the element without clearing it first.
func (s *Session) SendKeys(ctx context.Context, selector, text string) error {
	err := s.run(ctx, s.actionTimeout(),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("send keys failed for %q: %w", selector, err)
	}
	return nil
}

// namedKeys maps the key names used by site flows to chromedp key runes.
var namedKeys = map[string]string{
	"Enter":     kb.Enter,
	"Tab":       kb.Tab,
	"ArrowDown": kb.ArrowDown,
	"ArrowUp":   kb.ArrowUp,
	"Escape":    kb.Escape,
	"Backspace": kb.Backspace,
}

// PressKey sends a single named key to the element.
func (s *Session) PressKey(ctx context.Context, selector, key string) error {
	seq, ok := namedKeys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	if err := s.run(ctx, s.actionTimeout(), chromedp.SendKeys(selector, seq, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("press %s failed for %q: %w", key, selector, err)
	}
	return nil
}

// SetChecked drives a checkbox or radio input to the desired state. Already
// correct state is a no-op.
func (s *Session) SetChecked(ctx context.Context, selector string, checked bool) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		if (el.checked !== %t) {
			el.click();
			if (el.checked !== %t) {
				el.checked = %t;
				el.dispatchEvent(new Event('change', {bubbles: true}));
			}
		}
		return true;
	})()`, selector, checked, checked, checked)

	var ok bool
	if err := s.Evaluate(ctx, expr, &ok); err != nil {
		return fmt.Errorf("set checked failed for %q: %w", selector, err)
	}
	if !ok {
		return fmt.Errorf("set checked: no element matches %q", selector)
	}
	return nil
}

// IsChecked reports the checked state of a checkbox or radio input.
func (s *Session) IsChecked(ctx context.Context, selector string) (bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return -1;
		return el.checked ? 1 : 0;
	})()`, selector)

	var state int
	if err := s.Evaluate(ctx, expr, &state); err != nil {
		return false, fmt.Errorf("reading checked state of %q: %w", selector, err)
	}
	if state < 0 {
		return false, fmt.Errorf("is checked: no element matches %q", selector)
	}
	return state == 1, nil
}

// WaitVisible blocks until the selector matches a visible element.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = s.actionTimeout()
	}
	err := s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %q not visible after %s", ErrWaitTimeout, selector, timeout)
		}
		return fmt.Errorf("wait visible failed for %q: %w", selector, err)
	}
	return nil
}

// WaitURLContains polls the page location until it contains the fragment.
func (s *Session) WaitURLContains(ctx context.Context, fragment string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = s.actionTimeout()
	}
	deadline := time.Now().Add(timeout)
	for {
		url, err := s.CurrentURL(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(url, fragment) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: url does not contain %q after %s", ErrWaitTimeout, fragment, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.urlPollEvery):
		}
	}
}

// Screenshot captures the viewport as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, s.actionTimeout(), chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// Settle grants client-side scripts the configured quiet period.
func (s *Session) Settle(ctx context.Context) error {
	quiet := s.cfg.Settle
	if quiet <= 0 {
		quiet = 2 * time.Second
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(quiet):
		return nil
	}
}

// Close tears down the tab and the browser process. Safe to call more than once.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.logger.Debug("Closing browser session")
	s.tabCancel()
	s.allocCancel()
	return nil
}
