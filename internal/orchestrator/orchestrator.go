// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/linkforge-cli/internal/browser"
	"github.com/xkilldash9x/linkforge-cli/internal/config"
	"github.com/xkilldash9x/linkforge-cli/internal/credstore"
	"github.com/xkilldash9x/linkforge-cli/internal/flow"
	"github.com/xkilldash9x/linkforge-cli/internal/formdriver"
	"github.com/xkilldash9x/linkforge-cli/internal/identity"
	"github.com/xkilldash9x/linkforge-cli/internal/sitecfg"
)

// PageFactory opens a fresh browser page for one site run. Each site gets its
// own browser so cookies and session state never leak between sites.
type PageFactory func(ctx context.Context) (browser.Page, error)

// Orchestrator walks the configured sites in order, runs the full flow on
// each, and collects one Result per site. Sites run strictly sequentially;
// directory sites rate-limit aggressively and parallel runs get IP-banned.
type Orchestrator struct {
	cfg    *config.Config
	logger *zap.Logger

	store   credstore.Store
	mail    flow.VerificationWaiter
	newPage PageFactory
	ids     *identity.Generator
}

// New wires an orchestrator. mail may be nil when no mailbox is configured;
// sites requiring verification will then fail individually instead of
// blocking the whole run.
func New(cfg *config.Config, logger *zap.Logger, store credstore.Store, mail flow.VerificationWaiter) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		logger: logger.Named("orchestrator"),
		store:  store,
		mail:   mail,
		ids: identity.NewGenerator(
			cfg.Mailbox.Address, cfg.Run.Password, cfg.Run.TargetURL, 0),
	}
	o.newPage = o.openSession
	return o
}

// SetPageFactory overrides how browser pages are created. Used by tests.
func (o *Orchestrator) SetPageFactory(f PageFactory) { o.newPage = f }

func (o *Orchestrator) openSession(ctx context.Context) (browser.Page, error) {
	return browser.NewSession(ctx, o.cfg.Browser, o.logger)
}

// Run processes the sites in order and returns one Result per site, in the
// same order. A failed site never aborts the run; cancellation marks the
// remaining sites skipped.
func (o *Orchestrator) Run(ctx context.Context, keys []string) []flow.Result {
	if len(keys) == 0 {
		keys = sitecfg.Keys()
	}
	o.logger.Info("Starting run", zap.Strings("sites", keys))

	results := make([]flow.Result, 0, len(keys))
	for i, key := range keys {
		site, ok := sitecfg.Lookup(key)
		if !ok {
			o.logger.Warn("Unknown site key", zap.String("site", key))
			results = append(results, skippedResult(key, "unknown site"))
			continue
		}

		if ctx.Err() != nil {
			o.logger.Warn("Run cancelled, skipping remaining sites",
				zap.String("site", key))
			results = append(results, siteResult(site, flow.StatusSkipped, "run cancelled"))
			continue
		}

		results = append(results, o.runSite(ctx, site))

		if i < len(keys)-1 {
			o.pause(ctx)
		}
	}

	o.logger.Info("Run finished", zap.Int("sites", len(results)))
	return results
}

// pause holds the full SiteDelay between two site runs, regardless of how
// long the previous site took. Cancellation cuts the pause short.
func (o *Orchestrator) pause(ctx context.Context) {
	delay := o.cfg.Run.SiteDelay
	if delay <= 0 {
		return
	}
	o.logger.Debug("Pausing before next site", zap.Duration("delay", delay))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// runSite opens a fresh browser, drives the site flow, and tears the browser
// down again. Any error short of the flow's own failure reporting becomes a
// failed Result here.
func (o *Orchestrator) runSite(ctx context.Context, site sitecfg.Site) flow.Result {
	page, err := o.newPage(ctx)
	if err != nil {
		o.logger.Error("Could not start browser",
			zap.String("site", site.Key), zap.Error(err))
		return siteResult(site, flow.StatusFailed, fmt.Sprintf("browser start: %v", err))
	}
	defer func() {
		if err := page.Close(); err != nil {
			o.logger.Warn("Browser close failed", zap.String("site", site.Key), zap.Error(err))
		}
	}()

	deps := flow.Deps{
		Page:   page,
		Driver: formdriver.NewDriver(page, o.logger),
		Mail:   o.mail,
		Store:  o.store,
		Gate: &formdriver.CaptchaGate{
			NonInteractive: o.cfg.Run.NonInteractive,
			Wait:           o.cfg.Run.CaptchaWait,
			In:             os.Stdin,
			Out:            os.Stdout,
			Logger:         o.logger,
		},
		Identity:  o.ids.New(),
		Site:      site,
		Listing:   sitecfg.DefaultListing(),
		Overwrite: o.cfg.Run.OverwriteCredentials,
		Logger:    o.logger,
	}
	return flow.Process(ctx, deps)
}

func siteResult(site sitecfg.Site, status flow.Status, msg string) flow.Result {
	return flow.Result{
		Timestamp: time.Now().Format(time.RFC3339),
		SiteName:  site.Name,
		Domain:    site.Domain,
		Status:    status,
		Error:     msg,
	}
}

func skippedResult(key, msg string) flow.Result {
	return flow.Result{
		Timestamp: time.Now().Format(time.RFC3339),
		SiteName:  key,
		Status:    flow.StatusSkipped,
		Error:     msg,
	}
}
