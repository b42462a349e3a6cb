package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/deal-analyzer/internal/server"
)

func newDBHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dbhealth",
		Short: "Check database connectivity and list the newest analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.initApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := server.PingDB(cmd.Context(), a.DB, opts.logger(), time.Second); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "DB health: OK (%s)\n", a.DB.Driver)

			list, err := a.Repo.List(cmd.Context(), 5)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recent analyses: %d\n", len(list))
			for _, an := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s %-16s %s\n", an.ID, an.Status, an.FileName)
			}
			return nil
		},
	}
}
