package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metailurini/sqlhelper/diag"
	"github.com/metailurini/sqlhelper/sqlhelper"
)

var errNoValue = errors.New("query returned no value")

func (a *app) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query SQL [PARAM...]",
		Short: "Run a query and print its rows tab-separated",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			cur, err := sqlhelper.Query(ctx, db, args[0], args[1:]...)
			if err != nil {
				return err
			}
			defer cur.Close()

			cols, err := cur.Columns()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, strings.Join(cols, "\t"))
			n := 0
			for cur.Next() {
				vals, err := cur.Strings()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, strings.Join(vals, "\t"))
				n++
			}
			if err := cur.Err(); err != nil {
				return err
			}
			a.logger.Debug("query finished", "rows", n)
			return nil
		},
	}
}

func (a *app) scalarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scalar SQL [PARAM...]",
		Short: "Print the first column of the first row; fails when absent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			v, ok, err := sqlhelper.QueryScalar(ctx, db, args[0], args[1:]...)
			if err != nil {
				return err
			}
			if !ok {
				return errNoValue
			}
			fmt.Fprintln(a.out, v)
			return nil
		},
	}
}

func (a *app) execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec SQL [PARAM...]",
		Short: "Execute a statement for its side effects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			if err := sqlhelper.Execute(ctx, db, args[0], args[1:]...); err != nil {
				return err
			}
			a.logger.Info("statement executed")
			return nil
		},
	}
}

func (a *app) loadMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "loadmap SQL",
		Short: "Load a two-column query and print key=value lines sorted by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			m, err := sqlhelper.LoadMap(ctx, db, args[0])
			if err != nil {
				return err
			}
			for _, k := range slices.Sorted(maps.Keys(m)) {
				fmt.Fprintf(a.out, "%s=%s\n", k, m[k])
			}
			return nil
		},
	}
}

func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connect and print the server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			version, err := diag.RecordServerVersion(ctx, db, a.cfg.Database.Driver, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, version)
			return nil
		},
	}
}
