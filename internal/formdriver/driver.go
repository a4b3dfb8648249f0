// internal/formdriver/driver.go
package formdriver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/linkforge-cli/internal/browser"
	"go.uber.org/zap"
)

// Driver is the resilience layer between site flows and the page. Every
// operation converts internal failures into a false outcome and a logged
// warning; nothing propagates. Directory sites vary wildly in markup, so a
// single field or click miss must degrade, not abort.
type Driver struct {
	page   browser.Page
	logger *zap.Logger
	// pause is the short delay granted after interactions so asynchronous
	// page updates can land.
	pause time.Duration
}

// NewDriver wires a Driver over a page capability.
func NewDriver(page browser.Page, logger *zap.Logger) *Driver {
	return &Driver{
		page:   page,
		logger: logger.Named("formdriver"),
		pause:  250 * time.Millisecond,
	}
}

// Page exposes the underlying page for flow steps that need raw access.
func (d *Driver) Page() browser.Page {
	return d.page
}

func (d *Driver) settle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(d.pause):
	}
}

// Fill tries each candidate selector in order, each through its resolution
// strategies, and writes the value into the first element that resolves. The
// write is verified by reading the value back; an exact match or any
// non-empty value counts as success. Returns false when every candidate
// fails.
func (d *Driver) Fill(ctx context.Context, candidates []string, value string) bool {
	for _, raw := range candidates {
		candidate := normalizeCandidate(raw)
		if candidate == "" {
			continue
		}
		selector, strategy, ok := d.resolve(ctx, candidate)
		if !ok {
			continue
		}

		if err := d.page.SetValue(ctx, selector, value); err != nil {
			d.logger.Debug("Fill write failed, trying next candidate",
				zap.String("candidate", candidate), zap.Error(err))
			continue
		}
		d.settle(ctx)

		got, err := d.page.Value(ctx, selector)
		if err != nil {
			d.logger.Debug("Fill read-back failed, trying next candidate",
				zap.String("candidate", candidate), zap.Error(err))
			continue
		}
		// Loose verification: masked or reformatted inputs won't echo the
		// exact value, so any non-empty content is accepted.
		if got == value || got != "" {
			d.logger.Info("Filled field",
				zap.String("candidate", candidate),
				zap.String("strategy", strategy))
			return true
		}
	}
	d.logger.Warn("Could not fill field with any candidate",
		zap.Strings("candidates", candidates))
	return false
}

// clickableRolesJS finds a button-like control whose accessible text contains
// the wanted text and marks it for the follow-up click.
func clickableRoleJS(text string) string {
	return fmt.Sprintf(`(() => {
	const wanted = %q.toLowerCase();
	const visible = el => {
		const st = window.getComputedStyle(el);
		if (st.display === 'none' || st.visibility === 'hidden') return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};
	document.querySelectorAll('[%s]').forEach(el => el.removeAttribute('%s'));
	const controls = document.querySelectorAll(
		'button, [role="button"], input[type="submit"], input[type="button"], a');
	for (const el of controls) {
		const name = (el.textContent || el.value || el.getAttribute('aria-label') || '').trim().toLowerCase();
		if (name.includes(wanted) && visible(el)) {
			el.setAttribute('%s', '1');
			return true;
		}
	}
	return false;
})()`, text, targetMark, targetMark, targetMark)
}

// visibleTextJS finds any visible element whose own text matches and marks it.
func visibleTextJS(text string) string {
	return fmt.Sprintf(`(() => {
	const wanted = %q.toLowerCase();
	const visible = el => {
		const st = window.getComputedStyle(el);
		if (st.display === 'none' || st.visibility === 'hidden') return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};
	document.querySelectorAll('[%s]').forEach(el => el.removeAttribute('%s'));
	const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_ELEMENT);
	while (walker.nextNode()) {
		const el = walker.currentNode;
		const own = Array.from(el.childNodes)
			.filter(n => n.nodeType === Node.TEXT_NODE)
			.map(n => n.textContent).join('').trim().toLowerCase();
		if (own.includes(wanted) && visible(el)) {
			el.setAttribute('%s', '1');
			return true;
		}
	}
	return false;
})()`, text, targetMark, targetMark, targetMark)
}

// Click resolves each candidate as an accessible button name, then as
// visible text, then as a raw selector, and clicks the first hit. A short
// settle delay follows a successful click. Returns false when nothing
// resolves.
func (d *Driver) Click(ctx context.Context, candidates []string) bool {
	for _, raw := range candidates {
		candidate := normalizeCandidate(raw)
		if candidate == "" {
			continue
		}

		var hit bool
		if err := d.page.Evaluate(ctx, clickableRoleJS(candidate), &hit); err == nil && hit {
			if err := d.page.Click(ctx, TargetSelector); err == nil {
				d.logger.Info("Clicked control",
					zap.String("candidate", candidate), zap.String("strategy", "role"))
				d.settle(ctx)
				return true
			}
		}

		hit = false
		if err := d.page.Evaluate(ctx, visibleTextJS(candidate), &hit); err == nil && hit {
			if err := d.page.Click(ctx, TargetSelector); err == nil {
				d.logger.Info("Clicked control",
					zap.String("candidate", candidate), zap.String("strategy", "text"))
				d.settle(ctx)
				return true
			}
		}

		if err := d.page.Click(ctx, candidate); err == nil {
			d.logger.Info("Clicked control",
				zap.String("candidate", candidate), zap.String("strategy", "selector"))
			d.settle(ctx)
			return true
		}
	}
	d.logger.Warn("Could not click any candidate", zap.Strings("candidates", candidates))
	return false
}

// selectOptionJS drives a <select> by index, value, exact label, or label
// substring, in that order of preference.
func selectOptionJS(selector, value string, index int) string {
	return fmt.Sprintf(`(() => {
	const sel = document.querySelector(%q);
	if (!sel || sel.tagName !== 'SELECT') return false;
	const opts = Array.from(sel.options);
	let pick = -1;
	const idx = %d;
	const wanted = %q;
	if (idx >= 0) {
		if (idx < opts.length) pick = idx;
	} else if (wanted !== '') {
		pick = opts.findIndex(o => o.value === wanted);
		if (pick < 0) pick = opts.findIndex(o => o.label.trim() === wanted);
		if (pick < 0) pick = opts.findIndex(o =>
			o.label.toLowerCase().includes(wanted.toLowerCase()));
	}
	if (pick < 0) return false;
	sel.selectedIndex = pick;
	sel.dispatchEvent(new Event('input', {bubbles: true}));
	sel.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
})()`, selector, index, value)
}

// SelectOption picks a dropdown option. When index is non-negative it wins;
// otherwise value match, exact label, then label substring are tried.
func (d *Driver) SelectOption(ctx context.Context, candidates []string, value string, index int) bool {
	for _, raw := range candidates {
		candidate := normalizeCandidate(raw)
		if candidate == "" {
			continue
		}
		selector, _, ok := d.resolve(ctx, candidate)
		if !ok {
			continue
		}
		var picked bool
		if err := d.page.Evaluate(ctx, selectOptionJS(selector, value, index), &picked); err != nil || !picked {
			continue
		}
		d.logger.Info("Selected dropdown option",
			zap.String("candidate", candidate),
			zap.String("value", value), zap.Int("index", index))
		d.settle(ctx)
		return true
	}
	d.logger.Warn("Could not select option with any candidate",
		zap.Strings("candidates", candidates), zap.String("value", value))
	return false
}

// SetCheckbox drives a checkbox to checked. Resolution is by direct selector
// only and the operation is idempotent: an already-checked box is left alone.
func (d *Driver) SetCheckbox(ctx context.Context, candidates []string) bool {
	for _, raw := range candidates {
		candidate := normalizeCandidate(raw)
		if candidate == "" {
			continue
		}
		checked, err := d.page.IsChecked(ctx, candidate)
		if err != nil {
			continue
		}
		if checked {
			d.logger.Debug("Checkbox already set", zap.String("candidate", candidate))
			return true
		}
		if err := d.page.SetChecked(ctx, candidate, true); err != nil {
			continue
		}
		d.logger.Info("Checked box", zap.String("candidate", candidate))
		d.settle(ctx)
		return true
	}
	d.logger.Warn("Could not set checkbox with any candidate",
		zap.Strings("candidates", candidates))
	return false
}

// SetRadio selects a radio button by direct selector.
func (d *Driver) SetRadio(ctx context.Context, candidates []string) bool {
	for _, raw := range candidates {
		candidate := normalizeCandidate(raw)
		if candidate == "" {
			continue
		}
		if err := d.page.SetChecked(ctx, candidate, true); err != nil {
			continue
		}
		d.logger.Info("Selected radio button", zap.String("candidate", candidate))
		d.settle(ctx)
		return true
	}
	d.logger.Warn("Could not select radio with any candidate",
		zap.Strings("candidates", candidates))
	return false
}

// PressEnter sends the Enter key to the first resolvable candidate.
func (d *Driver) PressEnter(ctx context.Context, candidates []string) bool {
	for _, raw := range candidates {
		candidate := normalizeCandidate(raw)
		if candidate == "" {
			continue
		}
		if err := d.page.PressKey(ctx, candidate, "Enter"); err != nil {
			continue
		}
		d.logger.Info("Pressed Enter", zap.String("candidate", candidate))
		d.settle(ctx)
		return true
	}
	return false
}

// captchaVocabulary is the fixed set of markup markers that reveal a
// CAPTCHA widget. Substring scan, case-insensitive.
var captchaVocabulary = []string{
	"recaptcha",
	"g-recaptcha",
	"captcha",
	"hcaptcha",
	"cf-turnstile",
}

// DetectCaptcha scans the full page markup for known CAPTCHA markers.
func (d *Driver) DetectCaptcha(ctx context.Context) bool {
	content, err := d.page.Content(ctx)
	if err != nil {
		d.logger.Debug("Could not read page content for captcha scan", zap.Error(err))
		return false
	}
	lower := strings.ToLower(content)
	for _, marker := range captchaVocabulary {
		if strings.Contains(lower, marker) {
			d.logger.Warn("CAPTCHA marker found in page", zap.String("marker", marker))
			return true
		}
	}
	return false
}
