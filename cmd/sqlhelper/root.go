package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/metailurini/sqlhelper/config"
	"github.com/metailurini/sqlhelper/dbconn"
)

// app carries state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
	out     io.Writer
	errOut  io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "sqlhelper",
		Short: "Run parameterized statements and batched inserts against a SQL database",
		Long: `sqlhelper runs parameterized queries, scalar lookups and statements,
loads CSV files with batched multi-row INSERTs, loads two-column results as
key/value pairs, applies migrations and runs cron-scheduled statements.

Parameters are bound positionally as strings. Bulk inserts use "?" markers,
so they need a driver that accepts them (sqlite).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./sqlhelper.yaml)")
	flags.String("driver", "", "database driver: pgx or sqlite")
	flags.String("dsn", "", "database connection string (env DATABASE_URL)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = a.v.BindPFlag("database.driver", flags.Lookup("driver"))
	_ = a.v.BindPFlag("database.dsn", flags.Lookup("dsn"))
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))

	root.AddCommand(
		a.queryCmd(),
		a.scalarCmd(),
		a.execCmd(),
		a.importCmd(),
		a.loadMapCmd(),
		a.migrateCmd(),
		a.scheduleCmd(),
		a.pingCmd(),
	)
	return root
}

func (a *app) load(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Logging.NewLogger(a.errOut)
	a.logger.Debug("configuration loaded", "config", cfg.String())
	return nil
}

func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	return dbconn.Open(ctx, a.cfg.Database.DBConfig())
}

func (a *app) closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		a.logger.Warn("failed to close database", "err", err)
	}
}
