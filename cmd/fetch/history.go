package main

import (
	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-fetch/internal/app"
)

func historyCmd(runner *app.Runner) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently sent requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := runner.History(limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 for all)")
	return cmd
}
