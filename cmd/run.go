// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/linkforge-cli/internal/credstore"
	"github.com/xkilldash9x/linkforge-cli/internal/flow"
	"github.com/xkilldash9x/linkforge-cli/internal/mailbox"
	"github.com/xkilldash9x/linkforge-cli/internal/observability"
	"github.com/xkilldash9x/linkforge-cli/internal/orchestrator"
	"github.com/xkilldash9x/linkforge-cli/internal/reporting"
)

var (
	runHeadless       bool
	runDelay          time.Duration
	runReportPath     string
	runNonInteractive bool
	runOverwrite      bool
	runSites          []string
)

var runCmd = &cobra.Command{
	Use:   "run [site-keys...]",
	Short: "Register on the configured directory sites and create backlink listings.",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd, args)
		if err := cfg.ValidateForRun(); err != nil {
			return err
		}
		logger := observability.GetLogger()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		mail, closeMail := openMailbox(logger)
		defer closeMail()

		results := orchestrator.New(cfg, logger, store, mail).Run(ctx, runSites)

		// The report is written no matter how the run ended.
		report := reporting.Build(results)
		if err := report.Write(cfg.Report.Path); err != nil {
			logger.Error("Could not write report", zap.Error(err))
		} else {
			logger.Info("Report written", zap.String("path", cfg.Report.Path))
		}
		report.PrintSummary(cmd.OutOrStdout())

		if ctx.Err() != nil {
			return fmt.Errorf("run interrupted")
		}
		return nil
	},
}

// applyRunFlags folds explicitly set flags over the file/env configuration.
// Positional args win over the --sites flag, which wins over the config file.
func applyRunFlags(cmd *cobra.Command, args []string) {
	flags := cmd.Flags()
	if len(args) > 0 {
		runSites = args
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = runHeadless
	}
	if flags.Changed("delay") {
		cfg.Run.SiteDelay = runDelay
	}
	if flags.Changed("report") {
		cfg.Report.Path = runReportPath
	}
	if flags.Changed("non-interactive") {
		cfg.Run.NonInteractive = runNonInteractive
	}
	if flags.Changed("overwrite-credentials") {
		cfg.Run.OverwriteCredentials = runOverwrite
	}
	if len(runSites) == 0 {
		runSites = cfg.Run.Sites
	}
}

func openStore(ctx context.Context, logger *zap.Logger) (credstore.Store, error) {
	switch cfg.Credentials.Backend {
	case "postgres":
		return credstore.OpenPostgresStore(ctx, cfg.Credentials.DatabaseURL, logger)
	default:
		return credstore.OpenFileStore(cfg.Credentials.Path, logger)
	}
}

// openMailbox connects the IMAP poller. An unreachable mailbox degrades to a
// nil waiter so the run proceeds; only the sites requiring email verification
// will fail.
func openMailbox(logger *zap.Logger) (flow.VerificationWaiter, func()) {
	client, err := mailbox.DialIMAP(cfg.Mailbox, logger)
	if err != nil {
		logger.Warn("Mailbox unavailable, email verification will be skipped", zap.Error(err))
		return nil, func() {}
	}
	poller := mailbox.NewPoller(client, cfg.Mailbox.PollInterval, logger)
	return poller, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Mailbox close failed", zap.Error(err))
		}
	}
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", true, "run the browser headless")
	runCmd.Flags().DurationVar(&runDelay, "delay", 5*time.Second, "pause between sites")
	runCmd.Flags().StringVarP(&runReportPath, "report", "o", "linkforge_report.json", "report output path")
	runCmd.Flags().BoolVar(&runNonInteractive, "non-interactive", false, "fail fast on CAPTCHAs instead of waiting for an operator")
	runCmd.Flags().BoolVar(&runOverwrite, "overwrite-credentials", false, "replace stored credentials instead of reusing them")
	runCmd.Flags().StringSliceVar(&runSites, "sites", nil, "site keys to process (default: all built-in sites)")
	rootCmd.AddCommand(runCmd)
}
