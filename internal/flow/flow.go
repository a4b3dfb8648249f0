// internal/flow/flow.go
package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/linkforge-cli/internal/browser"
	"github.com/xkilldash9x/linkforge-cli/internal/credstore"
	"github.com/xkilldash9x/linkforge-cli/internal/formdriver"
	"github.com/xkilldash9x/linkforge-cli/internal/identity"
	"github.com/xkilldash9x/linkforge-cli/internal/sitecfg"
	"go.uber.org/zap"
)

// Status is the terminal outcome of processing one site.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is the one record every site run produces, crash or not.
type Result struct {
	Timestamp  string `json:"timestamp"`
	SiteName   string `json:"site_name"`
	Domain     string `json:"domain"`
	Status     Status `json:"status"`
	ProfileURL string `json:"profile_url"`
	Error      string `json:"error"`
}

// VerificationWaiter blocks until a verification link for the domain arrives
// or the wait expires.
type VerificationWaiter interface {
	AwaitVerificationLink(ctx context.Context, domain string, maxWait time.Duration) (string, error)
}

// CaptchaAwaiter suspends the flow while a CAPTCHA gets solved.
type CaptchaAwaiter interface {
	Await(ctx context.Context) error
}

// Deps carries everything one site run needs.
type Deps struct {
	Page     browser.Page
	Driver   *formdriver.Driver
	Mail     VerificationWaiter
	Store    credstore.Store
	Gate     CaptchaAwaiter
	Identity identity.Identity
	Site     sitecfg.Site
	Listing  sitecfg.ListingData
	// Overwrite lets a run replace stored credentials instead of
	// converging on them.
	Overwrite bool
	Logger    *zap.Logger
}

// runner is one site flow variant. Custom flows bypass the generic steps
// entirely but report through the same Result contract.
type runner interface {
	run(ctx context.Context) Result
}

// customFlows maps site keys to their flow overrides. Sites not listed here
// get the generic flow.
var customFlows = map[string]func(*Engine) runner{
	"unolist":     func(e *Engine) runner { return &unolistFlow{e} },
	"freelisting": func(e *Engine) runner { return &freelistingFlow{e} },
}

// Process drives the full flow for one site and always returns exactly one
// Result. Nothing escapes the per-site boundary; panics and step errors all
// collapse into a failed Result.
func Process(ctx context.Context, deps Deps) (res Result) {
	e := newEngine(deps)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Site flow panicked", zap.Any("panic", r))
			res = e.failed(fmt.Sprintf("panic: %v", r))
		}
	}()

	e.logger.Info("Processing site",
		zap.String("site", deps.Site.Name), zap.String("domain", deps.Site.Domain))

	var fl runner = &genericFlow{e}
	if build, ok := customFlows[deps.Site.Key]; ok {
		e.logger.Info("Using custom site flow", zap.String("site", deps.Site.Key))
		fl = build(e)
	}
	return fl.run(ctx)
}
