package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the catalog schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openDatabase(cmd.Context(), true); err != nil {
				return err
			}
			a.logger.WithContext(cmd.Context()).Info("Catalog schema is up to date")
			return nil
		},
	}
}
