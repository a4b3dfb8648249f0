// internal/flow/freelisting.go
package flow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ajaxSuccessIndicators confirm a listing submit that never navigates. The
// create-listing form posts over AJAX and swaps the page body in place.
var ajaxSuccessIndicators = []string{
	"thank you",
	"success",
	"submitted",
	"pending review",
	"listing created",
}

// autocompleteFallbacks cover the suggestion widgets the category picker has
// shipped with over time.
var autocompleteFallbacks = []string{
	".ui-menu-item",
	".autocomplete-suggestion",
	"[role='option']",
}

// freelistingFlow handles freelistinguk.com. Registration and login are
// conventional enough for the shared engine steps; the listing form is not.
// Its category picker is a keyboard-driven autocomplete and its submit button
// starts out disabled until client-side validation passes.
type freelistingFlow struct{ e *Engine }

func (f *freelistingFlow) run(ctx context.Context) Result {
	e := f.e

	duplicate, err := e.register(ctx)
	if err != nil {
		return e.failed(err.Error())
	}

	if duplicate {
		e.logger.Info("Account exists, proceeding to login")
		if err := e.login(ctx, true); err != nil {
			return e.failed(err.Error())
		}
	} else {
		if e.deps.Site.Verification.Required {
			if err := e.verifyEmail(ctx); err != nil {
				return e.failed(err.Error())
			}
		}
		if err := e.login(ctx, false); err != nil {
			return e.failed(err.Error())
		}
	}

	publicURL, err := f.createListing(ctx)
	if err != nil {
		return e.failed(err.Error())
	}

	e.saveCredentials(ctx, publicURL)

	if publicURL != "" {
		return e.success(publicURL)
	}
	return e.partial("could not retrieve public listing URL")
}

func (f *freelistingFlow) createListing(ctx context.Context) (string, error) {
	e := f.e
	l := e.deps.Site.Listing
	e.logger.Info("Opening create-listing form", zap.String("url", l.CreateURL))

	if err := e.deps.Page.Navigate(ctx, l.CreateURL); err != nil {
		return "", fmt.Errorf("failed to load create listing page: %w", err)
	}

	for _, field := range fieldOrder(l.Fields) {
		if field == "category" || field == "description" {
			continue
		}
		if value := e.listingValue(field); value != "" {
			e.deps.Driver.Fill(ctx, l.Fields[field], value)
		}
	}

	f.pickCategories(ctx)
	f.fillDescription(ctx)

	if len(l.TermsCheckbox) > 0 {
		if !e.deps.Driver.SetCheckbox(ctx, l.TermsCheckbox) {
			e.logger.Warn("Could not tick listing terms checkbox")
		}
	}

	f.logFormDiagnostics(ctx)

	if !f.submitListing(ctx) {
		e.screenshotFailure(ctx, "freelisting_submit_failed.png")
		return "", fmt.Errorf("all listing submit methods failed")
	}
	e.wait(ctx, l.WaitAfterSubmit)

	return f.publicListingURL(ctx), nil
}

// pickCategories drives the autocomplete: type the category, arrow down to
// the first suggestion, accept with Enter. When the keyboard route leaves the
// input unchanged, fall back to clicking the suggestion element directly.
func (f *freelistingFlow) pickCategories(ctx context.Context) {
	e := f.e
	l := e.deps.Site.Listing
	input := firstCandidate(l.Fields["category"], "#myInput")

	limit := l.CategoryLimit
	if limit <= 0 {
		limit = 5
	}
	categories := e.deps.Listing.Categories
	if len(categories) > limit {
		categories = categories[:limit]
	}

	for _, category := range categories {
		if err := e.deps.Page.Click(ctx, input); err != nil {
			e.logger.Warn("Category input not clickable", zap.Error(err))
			return
		}
		if err := e.deps.Page.SendKeys(ctx, input, category); err != nil {
			e.logger.Warn("Could not type category", zap.String("category", category), zap.Error(err))
			continue
		}
		e.deps.Page.Settle(ctx)

		accepted := e.deps.Page.PressKey(ctx, input, "ArrowDown") == nil &&
			e.deps.Page.PressKey(ctx, input, "Enter") == nil
		if !accepted || !f.categoryAccepted(ctx, input, category) {
			if !f.clickSuggestion(ctx) {
				e.logger.Warn("Category not accepted", zap.String("category", category))
				continue
			}
		}
		e.logger.Info("Category selected", zap.String("category", category))
	}
}

// categoryAccepted reports whether the autocomplete consumed the typed text,
// which it signals by clearing the input or replacing it with a tag.
func (f *freelistingFlow) categoryAccepted(ctx context.Context, input, typed string) bool {
	value, err := f.e.deps.Page.Value(ctx, input)
	if err != nil {
		return false
	}
	return value == "" || !strings.EqualFold(value, typed)
}

func (f *freelistingFlow) clickSuggestion(ctx context.Context) bool {
	for _, sel := range autocompleteFallbacks {
		if err := f.e.deps.Page.Click(ctx, sel); err == nil {
			return true
		}
	}
	return false
}

// fillDescription tries the configured selectors, then the usual textarea
// suspects. The description field has moved twice across site redesigns.
func (f *freelistingFlow) fillDescription(ctx context.Context) {
	e := f.e
	description := e.deps.Listing.Description
	candidates := append([]string{}, e.deps.Site.Listing.Fields["description"]...)
	candidates = append(candidates,
		"textarea[name='description']",
		"textarea#description",
		"textarea",
	)
	if !e.deps.Driver.Fill(ctx, candidates, description) {
		e.logger.Warn("Could not fill listing description")
	}
}

// logFormDiagnostics surfaces why a submit is about to fail: empty required
// fields and a still-disabled submit button.
func (f *freelistingFlow) logFormDiagnostics(ctx context.Context) {
	e := f.e
	const expr = `(() => {
	const empty = [];
	for (const el of document.querySelectorAll('input[required], textarea[required], select[required]')) {
		if (!el.value) empty.push(el.name || el.id || el.tagName);
	}
	const submit = document.querySelector('#submit, button[type="submit"], input[type="submit"]');
	return JSON.stringify({empty: empty, disabled: !!(submit && submit.disabled)});
})()`
	var report string
	if err := e.deps.Page.Evaluate(ctx, expr, &report); err != nil {
		return
	}
	e.logger.Debug("Pre-submit form state", zap.String("report", report))
}

// submitListing escalates: enable and click the submit button, then a
// synthetic submit event, then scan for the AJAX success text.
func (f *freelistingFlow) submitListing(ctx context.Context) bool {
	e := f.e
	page := e.deps.Page

	urlBefore, _ := page.CurrentURL(ctx)

	const enableAndClick = `(() => {
	const btn = document.querySelector('#submit, button[type="submit"], input[type="submit"]');
	if (!btn) return false;
	btn.disabled = false;
	btn.click();
	return true;
})()`
	var clicked bool
	if err := page.Evaluate(ctx, enableAndClick, &clicked); err == nil && clicked {
		page.Settle(ctx)
		if f.submitLanded(ctx, urlBefore) {
			e.logger.Debug("Listing submitted via button click")
			return true
		}
	}

	const forceSubmit = `(() => {
	const form = document.querySelector('form');
	if (!form) return false;
	form.dispatchEvent(new SubmitEvent('submit', {bubbles: true, cancelable: true}));
	form.submit();
	return true;
})()`
	var forced bool
	if err := page.Evaluate(ctx, forceSubmit, &forced); err == nil && forced {
		page.Settle(ctx)
		if f.submitLanded(ctx, urlBefore) {
			e.logger.Debug("Listing submitted via form.submit()")
			return true
		}
	}

	// The form may have posted over AJAX without moving the URL at all.
	if e.pageContains(ctx, ajaxSuccessIndicators) {
		e.logger.Debug("Listing submit confirmed by page text")
		return true
	}
	return false
}

func (f *freelistingFlow) submitLanded(ctx context.Context, urlBefore string) bool {
	if url, err := f.e.deps.Page.CurrentURL(ctx); err == nil && url != urlBefore {
		return true
	}
	return f.e.pageContains(ctx, ajaxSuccessIndicators)
}

// publicListingURL opens the newest entry on the my-listings page and returns
// the URL the browser lands on.
func (f *freelistingFlow) publicListingURL(ctx context.Context) string {
	e := f.e
	cfg := e.deps.Site.PublicURL

	if cfg.MyListingsURL != "" {
		if err := e.deps.Page.Navigate(ctx, cfg.MyListingsURL); err != nil {
			e.logger.Warn("Could not open my-listings page", zap.Error(err))
			return ""
		}
	}

	previews := append([]string{}, cfg.PreviewButton...)
	previews = append(previews, "a[href*='listings/']")
	if !e.deps.Driver.Click(ctx, previews) {
		e.logger.Warn("Could not open listing preview")
		return ""
	}
	e.deps.Page.Settle(ctx)

	url, err := e.deps.Page.CurrentURL(ctx)
	if err != nil {
		e.logger.Warn("Could not read public listing URL", zap.Error(err))
		return ""
	}
	if cfg.URLPattern != "" && !strings.Contains(url, cfg.URLPattern) {
		e.logger.Warn("Listing URL does not match expected pattern", zap.String("url", url))
	}
	return url
}

// firstCandidate returns the first selector in the list, or the fallback.
func firstCandidate(candidates []string, fallback string) string {
	if len(candidates) > 0 {
		return candidates[0]
	}
	return fallback
}
