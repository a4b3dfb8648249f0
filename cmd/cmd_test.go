// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/linkforge-cli/internal/config"
	"github.com/xkilldash9x/linkforge-cli/internal/flow"
	"github.com/xkilldash9x/linkforge-cli/internal/reporting"
)

func TestInitializeConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	viper.Reset()
	cfgFile = ""

	require.NoError(t, initializeConfig())

	loaded, err := config.NewConfigFromViper(viper.GetViper())
	require.NoError(t, err)

	assert.True(t, loaded.Browser.Headless)
	assert.Equal(t, "file", loaded.Credentials.Backend)
	assert.Equal(t, "credentials.json", loaded.Credentials.Path)
	assert.Equal(t, "linkforge_report.json", loaded.Report.Path)
	assert.Positive(t, loaded.Mailbox.PollInterval)
}

func TestValidateForRunRejectsMissingTarget(t *testing.T) {
	viper.Reset()
	config.SetDefaults(viper.GetViper())

	loaded, err := config.NewConfigFromViper(viper.GetViper())
	require.NoError(t, err)

	err = loaded.ValidateForRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_url")
}

func TestOpenMailboxDegradesWhenUnavailable(t *testing.T) {
	cfg = &config.Config{
		Mailbox: config.MailboxConfig{
			Server:  "127.0.0.1:1",
			Address: "runner@example.test",
		},
	}

	mail, closeMail := openMailbox(zap.NewNop())
	defer closeMail()

	// An unreachable mailbox yields no waiter; the run itself proceeds and
	// verification-dependent sites fail individually.
	assert.Nil(t, mail)
}

func TestReportCommandPrintsSummary(t *testing.T) {
	t.Chdir(t.TempDir())
	viper.Reset()
	cfgFile = ""

	path := filepath.Join(t.TempDir(), "report.json")
	report := reporting.Build([]flow.Result{
		{SiteName: "Test Site", Domain: "example.test", Status: flow.StatusSuccess,
			ProfileURL: "https://example.test/listing/1"},
	})
	require.NoError(t, report.Write(path))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"report", path})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Test Site")
	assert.Contains(t, out.String(), "success: 1")
}

func TestReportCommandMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	viper.Reset()
	cfgFile = ""

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"report", "absent.json"})

	assert.Error(t, rootCmd.Execute())
}
