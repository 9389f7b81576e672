package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/metailurini/sqlhelper/diag"
	"github.com/metailurini/sqlhelper/scheduler"
)

func (a *app) scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the statements listed under scheduler.jobs on their cron schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			runner, err := scheduler.NewRunner(db, scheduler.Config{
				Interval: a.cfg.Scheduler.Interval,
				Jobs:     a.cfg.Scheduler.Jobs,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}

			_, _ = diag.RecordServerVersion(ctx, db, a.cfg.Database.Driver, a.logger)

			a.logger.Info("scheduler starting", "interval", a.cfg.Scheduler.Interval.String(), "jobs", len(a.cfg.Scheduler.Jobs))
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.logger.Info("scheduler stopped")
			return nil
		},
	}
}
