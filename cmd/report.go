// File: cmd/report.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/linkforge-cli/internal/reporting"
)

var reportInput string

var reportCmd = &cobra.Command{
	Use:   "report [path]",
	Short: "Print the summary of a previous run's report.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Report.Path
		if reportInput != "" {
			path = reportInput
		}
		if len(args) == 1 {
			path = args[0]
		}
		report, err := reporting.Load(path)
		if err != nil {
			return err
		}
		report.PrintSummary(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportInput, "input", "i", "", "report file to print")
	rootCmd.AddCommand(reportCmd)
}
