// internal/flow/unolist.go
package flow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// unolistFlow handles unolist.in, whose forms predate accessible controls:
// the registration submit is an image input with no name, and the site
// sometimes wants an explicit login right after registering.
type unolistFlow struct{ e *Engine }

func (u *unolistFlow) run(ctx context.Context) Result {
	e := u.e

	// A stored account short-circuits registration entirely.
	if u.loginWithCreds(ctx) {
		e.logger.Info("Logged in with existing account")
		return u.afterAuth(ctx)
	}

	status, err := u.register(ctx)
	if err != nil {
		return e.failed(err.Error())
	}

	switch status {
	case "duplicate":
		e.logger.Info("Email exists, logging in instead")
		if !u.loginWithCreds(ctx) {
			return e.failed("account exists but login failed")
		}
	case "registered":
		// Registration alone does not start a session here.
		e.logger.Info("Attempting post-registration login")
		if !u.loginWithCreds(ctx) {
			e.logger.Warn("Post-registration login failed, retrying once")
			e.deps.Page.Settle(ctx)
			if !u.loginWithCreds(ctx) {
				return e.failed("login failed after registration")
			}
		}
	}
	return u.afterAuth(ctx)
}

func (u *unolistFlow) register(ctx context.Context) (string, error) {
	e := u.e
	reg := e.deps.Site.Registration
	e.logger.Info("Attempting registration", zap.String("url", reg.URL))

	if err := e.deps.Page.Navigate(ctx, reg.URL); err != nil {
		return "", fmt.Errorf("failed to load registration page: %w", err)
	}
	if err := e.captchaCheck(ctx); err != nil {
		return "", err
	}

	for _, field := range fieldOrder(reg.Fields) {
		value := e.deps.Identity.FieldValue(field)
		if field == "first_name" {
			// The form rejects multi-word first names.
			if parts := strings.Fields(value); len(parts) > 0 {
				value = parts[0]
			}
		}
		if value != "" {
			e.deps.Driver.Fill(ctx, reg.Fields[field], value)
		}
	}
	e.deps.Driver.SetCheckbox(ctx, reg.TermsCheckbox)

	urlBefore, _ := e.deps.Page.CurrentURL(ctx)

	e.logger.Info("Clicking register button")
	if !u.submitChain(ctx, []string{"register"}, "#phone") {
		e.screenshotFailure(ctx, "unolist_registration_failed.png")
		return "", fmt.Errorf("all registration submit methods failed")
	}

	e.wait(ctx, reg.WaitAfterSubmit)

	if urlAfter, err := e.deps.Page.CurrentURL(ctx); err == nil && urlAfter != urlBefore {
		e.logger.Info("Navigation detected after submit",
			zap.String("from", urlBefore), zap.String("to", urlAfter))
	}

	if e.pageContains(ctx, duplicateMarkers) {
		return "duplicate", nil
	}
	if e.pageContains(ctx, successIndicators) {
		e.logger.Info("Registration appears successful")
	}
	return "registered", nil
}

// submitChain escalates through every known way of firing an image-button
// form: keyword-matched image inputs, a generic image input, a JS click, a
// raw form submit, and finally Enter on the last field.
func (u *unolistFlow) submitChain(ctx context.Context, keywords []string, enterSelector string) bool {
	e := u.e
	page := e.deps.Page

	var selectors []string
	for _, kw := range keywords {
		selectors = append(selectors,
			fmt.Sprintf(`input[type="image"][alt*=%q i]`, kw),
			fmt.Sprintf(`input[type="image"][src*=%q i]`, kw),
		)
	}
	selectors = append(selectors, `input[type="image"]`)

	for _, sel := range selectors {
		if err := page.Click(ctx, sel); err == nil {
			e.logger.Debug("Submitted via image button", zap.String("selector", sel))
			return true
		}
	}

	jsClick := fmt.Sprintf(`(() => {
	const btn = document.querySelector(%q);
	if (btn) { btn.click(); return true; }
	return false;
})()`, selectors[0])
	var clicked bool
	if err := page.Evaluate(ctx, jsClick, &clicked); err == nil && clicked {
		e.logger.Debug("Submitted via JS click")
		return true
	}

	jsSubmit := `(() => {
	const btn = document.querySelector('input[type="image"]');
	const form = (btn && btn.form) || document.querySelector('form');
	if (form) { form.submit(); return true; }
	return false;
})()`
	var submitted bool
	if err := page.Evaluate(ctx, jsSubmit, &submitted); err == nil && submitted {
		e.logger.Debug("Submitted via form.submit()")
		return true
	}

	if enterSelector != "" {
		if err := page.PressKey(ctx, enterSelector, "Enter"); err == nil {
			e.logger.Debug("Submitted via Enter key")
			return true
		}
	}
	return false
}

func (u *unolistFlow) loginWithCreds(ctx context.Context) bool {
	e := u.e
	lg := e.deps.Site.Login
	_, email, password := e.credentials(ctx)
	if email == "" || password == "" {
		e.logger.Warn("Missing email or password for login")
		return false
	}

	if err := e.deps.Page.Navigate(ctx, lg.URL); err != nil {
		e.logger.Warn("Could not open login page", zap.Error(err))
		return false
	}

	e.deps.Driver.Fill(ctx, lg.Fields["email"], email)
	e.deps.Driver.Fill(ctx, lg.Fields["password"], password)

	triggered := u.submitChain(ctx, []string{"login", "sign in"}, "") ||
		e.deps.Driver.Click(ctx, lg.Submit) ||
		e.deps.Driver.PressEnter(ctx, []string{"#pword"})
	if !triggered {
		e.logger.Warn("Could not trigger login submit")
		return false
	}
	e.wait(ctx, lg.WaitAfterLogin)

	if e.pageContains(ctx, loginCues) {
		e.logger.Info("Logged in")
		return true
	}
	e.logger.Warn("Login not confirmed")
	return false
}

func (u *unolistFlow) afterAuth(ctx context.Context) Result {
	e := u.e
	publicURL := u.createAd(ctx)
	e.saveCredentials(ctx, publicURL)
	if publicURL != "" {
		return e.success(publicURL)
	}
	return e.partial("could not retrieve public ad URL")
}

func (u *unolistFlow) createAd(ctx context.Context) string {
	e := u.e
	l := e.deps.Site.Listing
	e.logger.Info("Opening post-ad form", zap.String("url", l.CreateURL))

	if err := e.deps.Page.Navigate(ctx, l.CreateURL); err != nil {
		e.logger.Error("Could not open post-ad form", zap.Error(err))
		return ""
	}

	for _, field := range fieldOrder(l.Fields) {
		if value := e.listingValue(field); value != "" {
			e.deps.Driver.Fill(ctx, l.Fields[field], value)
		}
	}

	// First option of each radio group is good enough for a free ad.
	for _, candidates := range l.RadioGroups {
		e.deps.Driver.SetRadio(ctx, candidates)
	}
	for name, candidates := range l.Checkboxes {
		if !e.deps.Driver.SetCheckbox(ctx, candidates) && name == "agree" {
			e.logger.Warn("Could not tick agreement checkbox")
		}
	}

	e.logger.Info("Submitting ad")
	if !e.deps.Driver.Click(ctx, l.Submit) {
		e.logger.Error("Could not find ad submit control")
		return ""
	}
	e.wait(ctx, l.WaitAfterSubmit)

	return u.recentAdURL(ctx)
}

// recentAdURL walks My Account -> My Classifieds and opens the newest ad.
func (u *unolistFlow) recentAdURL(ctx context.Context) string {
	e := u.e
	cfg := e.deps.Site.PublicURL

	navigated := false
	for _, text := range cfg.Navigation {
		if e.deps.Driver.Click(ctx, []string{text}) {
			navigated = true
		}
	}
	if !navigated && cfg.MyListingsURL != "" {
		if err := e.deps.Page.Navigate(ctx, cfg.MyListingsURL); err != nil {
			e.logger.Error("Could not open my-classifieds page", zap.Error(err))
			return ""
		}
	}

	if !e.deps.Driver.Click(ctx, []string{"View", "Preview", ".ad-title a"}) {
		e.logger.Warn("Could not open the newest ad")
		return ""
	}

	url, err := e.deps.Page.CurrentURL(ctx)
	if err != nil {
		e.logger.Error("Could not capture public ad URL", zap.Error(err))
		return ""
	}
	if cfg.URLPattern != "" && !strings.Contains(url, cfg.URLPattern) {
		e.logger.Warn("Ad URL does not match expected pattern", zap.String("url", url))
	}
	return url
}
