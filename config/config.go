// Package config loads sqlhelper CLI settings from a YAML file, the
// environment and command-line flags using viper.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/metailurini/sqlhelper/apperrors"
	"github.com/metailurini/sqlhelper/dbconn"
	"github.com/metailurini/sqlhelper/scheduler"
	"github.com/metailurini/sqlhelper/sqlhelper"
)

// EnvPrefix prefixes every environment override, e.g. SQLHELPER_DATABASE_DSN.
const EnvPrefix = "SQLHELPER"

// Database holds connection settings.
type Database struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// Logging selects the slog handler.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Bulk holds defaults for the import command.
type Bulk struct {
	BatchSize int    `mapstructure:"batch_size"`
	Suffix    string `mapstructure:"suffix"`
}

// Scheduler lists the statements run by the schedule command.
type Scheduler struct {
	Interval time.Duration   `mapstructure:"interval"`
	Jobs     []scheduler.Job `mapstructure:"jobs"`
}

// Config combines every section.
type Config struct {
	Database  Database  `mapstructure:"database"`
	Logging   Logging   `mapstructure:"logging"`
	Bulk      Bulk      `mapstructure:"bulk"`
	Scheduler Scheduler `mapstructure:"scheduler"`
}

// Load reads configuration into v. An explicit file must exist; otherwise
// sqlhelper.yaml is looked up in the working directory and
// $HOME/.config/sqlhelper and silently skipped when absent.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("sqlhelper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/sqlhelper")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := v.BindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind dsn env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", dbconn.DriverPgx)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("bulk.batch_size", sqlhelper.DefaultBatchSize)
	v.SetDefault("bulk.suffix", "")

	v.SetDefault("scheduler.interval", 30*time.Second)
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

// Validate checks values viper cannot type-check. The DSN is checked when a
// connection is opened, so commands that never connect can run without one.
func (c Config) Validate() error {
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver cannot be empty: %w", apperrors.ErrInvalidArgument)
	}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("invalid logging level %q, valid levels: %v: %w", c.Logging.Level, validLevels, apperrors.ErrInvalidArgument)
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("invalid logging format %q, valid formats: %v: %w", c.Logging.Format, validFormats, apperrors.ErrInvalidArgument)
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxOpenConns > math.MaxInt32 {
		return fmt.Errorf("database max open conns must be between 0 and %d: %w", math.MaxInt32, apperrors.ErrInvalidArgument)
	}
	if c.Bulk.BatchSize < 0 {
		return fmt.Errorf("bulk batch size must be >= 0: %w", apperrors.ErrInvalidArgument)
	}
	return nil
}

// DBConfig converts the database section for dbconn.Open.
func (d Database) DBConfig() dbconn.Config {
	return dbconn.Config{
		Driver:          d.Driver,
		DSN:             d.DSN,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}

// NewLogger builds the slog logger described by l.
func (l Logging) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// String hides the DSN, which usually carries credentials.
func (c Config) String() string {
	return fmt.Sprintf("Config{Database: {Driver: %s, DSN: [HIDDEN]}, Logging: %+v, Bulk: %+v, Scheduler: {Interval: %s, Jobs: %d}}",
		c.Database.Driver, c.Logging, c.Bulk, c.Scheduler.Interval, len(c.Scheduler.Jobs))
}
