// File: cmd/sites.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/linkforge-cli/internal/observability"
	"github.com/xkilldash9x/linkforge-cli/internal/sitecfg"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the built-in directory sites and stored credentials.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		store, err := openStore(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		for _, site := range sitecfg.Builtin() {
			status := "no stored credentials"
			rec, found, err := store.Load(context.Background(), site.Name)
			if err == nil && found {
				status = "credentials stored"
				if rec.ProfileURL != "" {
					status += ", listing at " + rec.ProfileURL
				}
			}
			fmt.Fprintf(out, "%-15s %-20s %s\n", site.Key, site.Domain, status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}
