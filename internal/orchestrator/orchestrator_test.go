// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/linkforge-cli/internal/browser"
	"github.com/xkilldash9x/linkforge-cli/internal/config"
	"github.com/xkilldash9x/linkforge-cli/internal/credstore"
	"github.com/xkilldash9x/linkforge-cli/internal/flow"
	"github.com/xkilldash9x/linkforge-cli/internal/sitecfg"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// deadPage errors on every interaction. Driving a flow over it exercises the
// orchestrator's continue-on-failure behavior without a real browser.
type deadPage struct{}

var errDead = errors.New("page gone")

func (deadPage) Navigate(context.Context, string) error          { return errDead }
func (deadPage) CurrentURL(context.Context) (string, error)      { return "", errDead }
func (deadPage) Content(context.Context) (string, error)         { return "", errDead }
func (deadPage) Evaluate(context.Context, string, any) error     { return errDead }
func (deadPage) Click(context.Context, string) error             { return errDead }
func (deadPage) SetValue(context.Context, string, string) error  { return errDead }
func (deadPage) Value(context.Context, string) (string, error)   { return "", errDead }
func (deadPage) SendKeys(context.Context, string, string) error  { return errDead }
func (deadPage) PressKey(context.Context, string, string) error  { return errDead }
func (deadPage) SetChecked(context.Context, string, bool) error  { return errDead }
func (deadPage) IsChecked(context.Context, string) (bool, error) { return false, errDead }
func (deadPage) WaitVisible(context.Context, string, time.Duration) error {
	return errDead
}
func (deadPage) WaitURLContains(context.Context, string, time.Duration) error {
	return errDead
}
func (deadPage) Screenshot(context.Context) ([]byte, error) { return nil, errDead }
func (deadPage) Settle(context.Context) error               { return nil }
func (deadPage) Close() error                               { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Run: config.RunConfig{
			TargetURL:      "https://client.example",
			Password:       "hunter2secret",
			SiteDelay:      time.Millisecond,
			NonInteractive: true,
		},
		Mailbox: config.MailboxConfig{Address: "runner@example.test"},
	}
}

func testStore(t *testing.T) credstore.Store {
	t.Helper()
	store, err := credstore.OpenFileStore(filepath.Join(t.TempDir(), "creds.json"), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestRunContinuesPastFailures(t *testing.T) {
	o := New(testConfig(), zap.NewNop(), testStore(t), nil)
	o.SetPageFactory(func(ctx context.Context) (browser.Page, error) {
		return deadPage{}, nil
	})

	keys := []string{"unolist", "not-a-site", "yplocal"}
	results := o.Run(context.Background(), keys)

	require.Len(t, results, 3)
	assert.Equal(t, flow.StatusFailed, results[0].Status)
	assert.Equal(t, flow.StatusSkipped, results[1].Status)
	assert.Equal(t, "not-a-site", results[1].SiteName)
	assert.Equal(t, flow.StatusFailed, results[2].Status)
}

func TestRunReportsBrowserStartFailure(t *testing.T) {
	o := New(testConfig(), zap.NewNop(), testStore(t), nil)
	o.SetPageFactory(func(ctx context.Context) (browser.Page, error) {
		return nil, errors.New("chrome not found")
	})

	results := o.Run(context.Background(), []string{"unolist"})

	require.Len(t, results, 1)
	assert.Equal(t, flow.StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "browser start")
}

func TestRunDefaultsToAllBuiltinSites(t *testing.T) {
	o := New(testConfig(), zap.NewNop(), testStore(t), nil)
	o.SetPageFactory(func(ctx context.Context) (browser.Page, error) {
		return deadPage{}, nil
	})

	results := o.Run(context.Background(), nil)
	assert.Len(t, results, len(sitecfg.Keys()))
}

func TestRunHoldsSiteDelayBetweenSites(t *testing.T) {
	cfg := testConfig()
	cfg.Run.SiteDelay = 150 * time.Millisecond
	o := New(cfg, zap.NewNop(), testStore(t), nil)
	o.SetPageFactory(func(ctx context.Context) (browser.Page, error) {
		return deadPage{}, nil
	})

	// Both sites fail instantly on the dead page, so the elapsed time is
	// dominated by the single inter-site pause.
	start := time.Now()
	results := o.Run(context.Background(), []string{"unolist", "yplocal"})

	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond,
		"the full delay must pass between consecutive sites")
}

func TestRunSkipsDelayAfterLastSite(t *testing.T) {
	cfg := testConfig()
	cfg.Run.SiteDelay = 30 * time.Second
	o := New(cfg, zap.NewNop(), testStore(t), nil)
	o.SetPageFactory(func(ctx context.Context) (browser.Page, error) {
		return deadPage{}, nil
	})

	start := time.Now()
	results := o.Run(context.Background(), []string{"unolist"})

	require.Len(t, results, 1)
	assert.Less(t, time.Since(start), 5*time.Second,
		"a single-site run must not pause at all")
}

func TestRunMarksRemainingSkippedOnCancel(t *testing.T) {
	o := New(testConfig(), zap.NewNop(), testStore(t), nil)
	o.SetPageFactory(func(ctx context.Context) (browser.Page, error) {
		return deadPage{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := o.Run(ctx, []string{"unolist", "yplocal"})

	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, flow.StatusSkipped, res.Status)
		assert.Equal(t, "run cancelled", res.Error)
	}
}
