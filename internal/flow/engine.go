// internal/flow/engine.go
package flow

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xkilldash9x/linkforge-cli/internal/credstore"
	"github.com/xkilldash9x/linkforge-cli/internal/sitecfg"
	"go.uber.org/zap"
)

// duplicateMarkers reveal that the account already exists. Registration
// landing on one of these is the alternate path to login, not an error.
var duplicateMarkers = []string{
	"already exists",
	"already registered",
	"already taken",
	"already in use",
	"email already exist",
	"email address is already taken",
	"account with this email",
	"duplicate email",
}

// loginCues are markup fragments that confirm an authenticated session.
var loginCues = []string{
	"logout",
	"my account",
	"dashboard",
	"my classifieds",
	"post free ad",
	"account-profile",
	"/user/",
}

// successIndicators suggest a submit landed, even without navigation.
var successIndicators = []string{
	"thank",
	"success",
	"verify",
	"confirmation",
	"registered",
	"welcome",
}

// Engine drives the per-site state machine. Custom flows reuse its steps
// where their sites behave conventionally.
type Engine struct {
	deps   Deps
	logger *zap.Logger

	// savedCreds holds the stored record when one exists, so re-runs
	// converge on the original account instead of the fresh identity.
	savedCreds credstore.Record
	haveCreds  bool
}

func newEngine(deps Deps) *Engine {
	return &Engine{
		deps:   deps,
		logger: deps.Logger.Named("flow").With(zap.String("site", deps.Site.Key)),
	}
}

// genericFlow is the default register/verify/login/create/extract sequence.
type genericFlow struct{ e *Engine }

func (g *genericFlow) run(ctx context.Context) Result {
	e := g.e

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

	profileURL, err := e.createListingOrProfile(ctx)
	if err != nil {
		return e.failed(err.Error())
	}

	e.saveCredentials(ctx, profileURL)

	if profileURL != "" {
		return e.success(profileURL)
	}
	return e.partial("could not retrieve profile URL")
}

// -- Step 1: registration --

// register fills and submits the sign-up form. Field-level misses are
// best-effort; only an unloadable page or an unresolvable submit control is
// fatal. Returns true when the site reports the account already exists.
func (e *Engine) register(ctx context.Context) (bool, error) {
	reg := e.deps.Site.Registration
	e.logger.Info("Step 1: registration", zap.String("url", reg.URL))

	if err := e.deps.Page.Navigate(ctx, reg.URL); err != nil {
		return false, fmt.Errorf("failed to load registration page: %w", err)
	}

	if err := e.captchaCheck(ctx); err != nil {
		return false, err
	}

	filled := 0
	for _, field := range fieldOrder(reg.Fields) {
		value := e.registrationValue(field)
		if value == "" {
			continue
		}
		if e.deps.Driver.Fill(ctx, reg.Fields[field], value) {
			filled++
		}
	}
	if filled == 0 {
		e.logger.Warn("No registration fields were filled, selectors may be stale")
	}

	if len(reg.TermsCheckbox) > 0 {
		e.deps.Driver.SetCheckbox(ctx, reg.TermsCheckbox)
	}

	e.logger.Info("Submitting registration")
	if !e.deps.Driver.Click(ctx, reg.Submit) {
		return false, fmt.Errorf("could not resolve registration submit control")
	}
	e.wait(ctx, reg.WaitAfterSubmit)

	if e.pageContains(ctx, duplicateMarkers) {
		e.logger.Info("Duplicate-account response detected")
		return true, nil
	}
	e.logger.Info("Registration form submitted")
	return false, nil
}

func (e *Engine) registrationValue(field string) string {
	return e.deps.Identity.FieldValue(field)
}

func (e *Engine) captchaCheck(ctx context.Context) error {
	if !e.deps.Site.HasCaptcha || e.deps.Gate == nil {
		return nil
	}
	if !e.deps.Driver.DetectCaptcha(ctx) {
		return nil
	}
	e.logger.Warn("CAPTCHA detected, waiting for operator")
	if err := e.deps.Gate.Await(ctx); err != nil {
		return fmt.Errorf("captcha gate: %w", err)
	}
	return nil
}

// -- Step 2: email verification --

func (e *Engine) verifyEmail(ctx context.Context) error {
	v := e.deps.Site.Verification
	e.logger.Info("Step 2: email verification",
		zap.Duration("max_wait", v.MaxWait))

	if e.deps.Mail == nil {
		e.logger.Warn("No mail poller configured, skipping verification")
		return nil
	}

	link, err := e.deps.Mail.AwaitVerificationLink(ctx, e.deps.Site.Domain, v.MaxWait)
	if err != nil {
		return fmt.Errorf("verification email not received: %w", err)
	}
	if err := e.deps.Page.Navigate(ctx, link); err != nil {
		return fmt.Errorf("failed to open verification link: %w", err)
	}
	e.logger.Info("Email verified")
	return nil
}

// -- Step 3: login --

// login signs in, preferring previously stored credentials over the fresh
// identity so a re-run converges on the original account. With force false
// the step is skipped when the browser already left the login pages.
func (e *Engine) login(ctx context.Context, force bool) error {
	lg := e.deps.Site.Login
	if lg.URL == "" {
		e.logger.Info("No login configuration, assuming already logged in")
		return nil
	}

	username, email, password := e.credentials(ctx)

	if force {
		e.logger.Info("Step 3: login (forced)", zap.String("url", lg.URL))
		if err := e.deps.Page.Navigate(ctx, lg.URL); err != nil {
			return fmt.Errorf("failed to load login page: %w", err)
		}
	} else {
		current, err := e.deps.Page.CurrentURL(ctx)
		if err == nil && !strings.Contains(strings.ToLower(current), "login") {
			e.logger.Info("Already logged in, skipping login step")
			return nil
		}
		e.logger.Info("Step 3: login", zap.String("url", lg.URL))
		if err == nil && !strings.Contains(current, lg.URL) {
			if err := e.deps.Page.Navigate(ctx, lg.URL); err != nil {
				return fmt.Errorf("failed to load login page: %w", err)
			}
		}
	}

	for _, field := range fieldOrder(lg.Fields) {
		var value string
		switch field {
		case "username", "username_or_email":
			value = username
		case "email":
			value = email
		case "password":
			value = password
		}
		if value != "" {
			e.deps.Driver.Fill(ctx, lg.Fields[field], value)
		}
	}

	if !e.deps.Driver.Click(ctx, lg.Submit) {
		return fmt.Errorf("could not resolve login submit control")
	}
	e.wait(ctx, lg.WaitAfterLogin)

	// Heuristic cue lists can miss legitimate sessions, so an absent cue
	// degrades to a warning instead of aborting the site.
	if !e.pageContains(ctx, loginCues) {
		e.logger.Warn("No authenticated-session cue found after login, proceeding anyway")
	} else {
		e.logger.Info("Login completed")
	}
	return nil
}

// credentials resolves the identifier set for login, stored record first.
// With Overwrite set the stored record is ignored so the run rotates the
// account onto the fresh identity.
func (e *Engine) credentials(ctx context.Context) (username, email, password string) {
	id := e.deps.Identity
	username, email, password = id.Username, id.Email, id.Password

	if e.deps.Overwrite {
		e.logger.Info("Credential overwrite enabled, using fresh identity")
		return
	}

	rec, found, err := e.deps.Store.Load(ctx, e.deps.Site.Name)
	if err != nil {
		e.logger.Warn("Credential lookup failed", zap.Error(err))
		return
	}
	if !found {
		return
	}

	e.savedCreds, e.haveCreds = rec, true
	e.logger.Info("Using saved credentials", zap.String("username", rec.Username))
	if rec.Username != "" {
		username = rec.Username
	}
	if rec.Email != "" {
		email = rec.Email
	}
	if rec.Password != "" {
		password = rec.Password
	}
	return
}

// -- Step 4: listing / profile creation --

func (e *Engine) createListingOrProfile(ctx context.Context) (string, error) {
	if e.deps.Site.Listing != nil {
		return e.createListing(ctx)
	}
	if e.deps.Site.Profile != nil {
		return e.updateProfile(ctx)
	}
	e.logger.Warn("No listing or profile configuration for site")
	return "", nil
}

func (e *Engine) createListing(ctx context.Context) (string, error) {
	l := e.deps.Site.Listing
	e.logger.Info("Step 4: creating listing with backlink", zap.String("type", l.Type))

	if l.CreateURL != "" {
		if err := e.deps.Page.Navigate(ctx, l.CreateURL); err != nil {
			return "", fmt.Errorf("failed to load create listing page: %w", err)
		}
	} else {
		for _, text := range l.Navigation {
			if e.deps.Driver.Click(ctx, []string{text, strings.ToLower(text)}) {
				e.logger.Info("Clicked navigation link", zap.String("text", text))
				break
			}
		}
	}

	for _, field := range fieldOrder(l.Fields) {
		if field == "category" && l.CategoryValue != "" {
			continue
		}
		value := e.listingValue(field)
		if value == "" {
			continue
		}
		e.deps.Driver.Fill(ctx, l.Fields[field], value)
	}

	e.selectCategories(ctx, l)

	for _, candidates := range l.RadioGroups {
		e.deps.Driver.SetRadio(ctx, candidates)
	}
	for _, candidates := range l.Checkboxes {
		e.deps.Driver.SetCheckbox(ctx, candidates)
	}
	if len(l.TermsCheckbox) > 0 {
		if e.deps.Driver.SetCheckbox(ctx, l.TermsCheckbox) {
			e.logger.Info("Agreed to terms")
		}
	}

	e.logger.Info("Submitting listing")
	if e.deps.Driver.Click(ctx, l.Submit) {
		e.wait(ctx, l.WaitAfterSubmit)
	} else {
		e.logger.Warn("Could not resolve listing submit control")
	}

	return e.extractPublicURL(ctx), nil
}

// selectCategories handles the two category styles: a checkbox grid capped
// at the site's limit, or a dropdown fed a fixed value.
func (e *Engine) selectCategories(ctx context.Context, l *sitecfg.Listing) {
	if l.CategoryCheckboxes != "" {
		limit := l.CategoryLimit
		if limit <= 0 {
			limit = 5
		}
		checked := e.tickCheckboxGroup(ctx, l.CategoryCheckboxes, limit)
		if checked > 0 {
			e.logger.Info("Checked categories", zap.Int("count", checked))
		}
		return
	}
	if l.CategoryValue != "" {
		if candidates, ok := l.Fields["category"]; ok {
			if e.deps.Driver.SelectOption(ctx, candidates, l.CategoryValue, -1) {
				e.logger.Info("Selected category", zap.String("value", l.CategoryValue))
			}
		}
	}
}

// tickCheckboxGroup checks up to limit unchecked boxes matching the selector.
func (e *Engine) tickCheckboxGroup(ctx context.Context, selector string, limit int) int {
	expr := fmt.Sprintf(`(() => {
	let n = 0;
	for (const box of document.querySelectorAll(%q)) {
		if (n >= %d) break;
		if (!box.checked) {
			box.click();
			if (box.checked) n++;
		}
	}
	return n;
})()`, selector, limit)

	var checked int
	if err := e.deps.Page.Evaluate(ctx, expr, &checked); err != nil {
		e.logger.Warn("Category checkbox group failed", zap.Error(err))
		return 0
	}
	return checked
}

func (e *Engine) listingValue(field string) string {
	d := e.deps.Listing
	switch field {
	case "title":
		return d.Title
	case "description":
		return d.Description
	case "website":
		return e.deps.Identity.Website
	case "email", "email_again":
		return e.deps.Identity.Email
	case "phone":
		return d.Phone
	case "address":
		return d.Address
	case "city", "choose_city":
		return d.City
	case "area", "ask_area":
		return d.Area
	case "pincode":
		return d.Pincode
	case "state":
		return d.State
	case "category":
		return d.Category
	case "tags":
		return d.Tags
	default:
		return ""
	}
}

func (e *Engine) updateProfile(ctx context.Context) (string, error) {
	p := e.deps.Site.Profile
	e.logger.Info("Step 4: updating profile with website link")

	if p.EditURL != "" {
		if err := e.deps.Page.Navigate(ctx, p.EditURL); err != nil {
			return "", fmt.Errorf("failed to load profile edit page: %w", err)
		}
	} else {
		for _, text := range p.Navigation {
			if e.deps.Driver.Click(ctx, []string{text, strings.ToLower(text)}) {
				break
			}
		}
	}

	if len(p.WebsiteField) > 0 {
		if e.deps.Driver.Fill(ctx, p.WebsiteField, e.deps.Identity.Website) {
			e.logger.Info("Added website to profile", zap.String("website", e.deps.Identity.Website))
		}
	}
	for _, field := range fieldOrder(p.Fields) {
		var value string
		switch field {
		case "bio":
			value = e.deps.Identity.Bio
		case "company":
			value = e.deps.Identity.Company
		case "location":
			value = e.deps.Listing.City
		}
		if value != "" {
			e.deps.Driver.Fill(ctx, p.Fields[field], value)
		}
	}

	if len(p.SaveButton) > 0 {
		if e.deps.Driver.Click(ctx, p.SaveButton) {
			e.logger.Info("Profile saved")
		}
	}
	e.deps.Page.Settle(ctx)

	url, err := e.deps.Page.CurrentURL(ctx)
	if err != nil {
		return "", nil
	}
	return url, nil
}

// -- Step 5: public URL extraction --

// extractPublicURL walks to the "my listings" page and opens the newest
// entry. A missing link or pattern mismatch degrades; whatever URL the
// browser ends on is returned, possibly empty.
func (e *Engine) extractPublicURL(ctx context.Context) string {
	cfg := e.deps.Site.PublicURL
	e.logger.Info("Step 5: extracting public listing URL")

	navigated := false
	if cfg.MyListingsURL != "" {
		if err := e.deps.Page.Navigate(ctx, cfg.MyListingsURL); err != nil {
			e.logger.Warn("Could not open my-listings page", zap.Error(err))
		} else {
			navigated = true
		}
	}
	if !navigated {
		for _, text := range cfg.Navigation {
			if e.deps.Driver.Click(ctx, []string{text, strings.ToLower(text)}) {
				navigated = true
			}
		}
	}

	clicked := false
	if cfg.ClickRecent && len(cfg.PreviewButton) > 0 {
		clicked = e.deps.Driver.Click(ctx, cfg.PreviewButton)
	}
	if !navigated && !clicked {
		e.logger.Warn("Could not reach a listing preview")
		return ""
	}

	url, err := e.deps.Page.CurrentURL(ctx)
	if err != nil {
		e.logger.Warn("Could not read public URL", zap.Error(err))
		return ""
	}
	if cfg.URLPattern != "" && !strings.Contains(url, cfg.URLPattern) {
		// Logged but still returned; the listing may live under an
		// unexpected path.
		e.logger.Warn("Public URL does not match expected pattern",
			zap.String("url", url), zap.String("pattern", cfg.URLPattern))
	}
	if url != "" {
		e.logger.Info("Public URL captured", zap.String("url", url))
	}
	return url
}

// -- Credential persistence --

// saveCredentials persists the account write-once, then attaches the
// profile URL to whichever record survived.
func (e *Engine) saveCredentials(ctx context.Context, profileURL string) {
	rec := credstore.NewRecord(e.deps.Identity.Username, e.deps.Identity.Email, e.deps.Identity.Password)
	if e.haveCreds && !e.deps.Overwrite {
		rec = e.savedCreds
	}
	if err := e.deps.Store.Save(ctx, e.deps.Site.Name, rec, e.deps.Overwrite); err != nil {
		e.logger.Warn("Could not save credentials", zap.Error(err))
		return
	}
	if profileURL != "" {
		if err := e.deps.Store.AttachProfileURL(ctx, e.deps.Site.Name, profileURL); err != nil {
			e.logger.Warn("Could not record profile URL", zap.Error(err))
		}
	}
}

// -- Shared helpers --

// screenshotFailure saves a screenshot for post-mortem when every submit
// method on a site has failed.
func (e *Engine) screenshotFailure(ctx context.Context, filename string) {
	shot, err := e.deps.Page.Screenshot(ctx)
	if err != nil {
		return
	}
	if err := os.WriteFile(filename, shot, 0o644); err == nil {
		e.logger.Info("Screenshot saved", zap.String("path", filename))
	}
}

func (e *Engine) pageContains(ctx context.Context, markers []string) bool {
	content, err := e.deps.Page.Content(ctx)
	if err != nil {
		e.logger.Warn("Could not read page content", zap.Error(err))
		return false
	}
	lower := strings.ToLower(content)
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (e *Engine) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (e *Engine) result(status Status, profileURL, errMsg string) Result {
	return Result{
		Timestamp:  time.Now().Format(time.RFC3339),
		SiteName:   e.deps.Site.Name,
		Domain:     e.deps.Site.Domain,
		Status:     status,
		ProfileURL: profileURL,
		Error:      errMsg,
	}
}

func (e *Engine) success(profileURL string) Result {
	e.logger.Info("Site completed", zap.String("profile_url", profileURL))
	return e.result(StatusSuccess, profileURL, "")
}

func (e *Engine) partial(reason string) Result {
	e.logger.Warn("Site partially completed", zap.String("reason", reason))
	return e.result(StatusPartial, "", reason)
}

func (e *Engine) failed(reason string) Result {
	e.logger.Error("Site failed", zap.String("reason", reason))
	return e.result(StatusFailed, "", reason)
}

// fieldOrder returns the map's field names in the canonical fill order,
// followed by any names outside the vocabulary.
func fieldOrder(fields map[string][]string) []string {
	ordered := make([]string, 0, len(fields))
	used := make(map[string]bool, len(fields))
	for _, name := range sitecfg.FieldOrder {
		if _, ok := fields[name]; ok {
			ordered = append(ordered, name)
			used[name] = true
		}
	}
	for name := range fields {
		if !used[name] {
			ordered = append(ordered, name)
		}
	}
	return ordered
}
