package main

import (
	"github.com/spf13/cobra"

	"github.com/metailurini/sqlhelper/migrator"
)

func (a *app) migrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations from a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			// migrator.Run closes this handle on every path.
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			return migrator.Run(ctx, db, migrator.Config{Driver: a.cfg.Database.Driver, Dir: dir}, a.logger)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "directory of NNN_name.up.sql files")
	return cmd
}
