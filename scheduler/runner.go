package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/metailurini/sqlhelper/apperrors"
	"github.com/metailurini/sqlhelper/sqlhelper"
)

// Job is a statement executed whenever its cron expression fires.
type Job struct {
	Name string   `mapstructure:"name"`
	Cron string   `mapstructure:"cron"`
	SQL  string   `mapstructure:"sql"`
	Args []string `mapstructure:"args"`
}

// Config provides runtime options for the scheduler.
type Config struct {
	Interval time.Duration
	Jobs     []Job
	Logger   *slog.Logger
	Now      func() time.Time
}

type scheduledJob struct {
	Job
	schedule cron.Schedule
	last     time.Time
}

// Runner periodically checks its jobs and executes the ones that are due.
// Several fire times missed between two checks collapse into one execution.
type Runner struct {
	conn     sqlhelper.Conn
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	jobs     []*scheduledJob
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewRunner validates every job's cron expression and constructs a runner.
// Jobs first become due at the first fire time after construction.
func NewRunner(conn sqlhelper.Conn, cfg Config) (*Runner, error) {
	if conn == nil {
		return nil, fmt.Errorf("connection is required: %w", apperrors.ErrNotConfigured)
	}
	if len(cfg.Jobs) == 0 {
		return nil, fmt.Errorf("at least one job is required: %w", apperrors.ErrInvalidArgument)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	start := now()
	jobs := make([]*scheduledJob, 0, len(cfg.Jobs))
	for i, job := range cfg.Jobs {
		if job.Name == "" {
			job.Name = fmt.Sprintf("job-%d", i+1)
		}
		if job.SQL == "" {
			return nil, fmt.Errorf("job %s: sql is required: %w", job.Name, apperrors.ErrInvalidArgument)
		}
		spec, err := cronParser.Parse(job.Cron)
		if err != nil {
			return nil, fmt.Errorf("job %s: invalid cron %q: %v: %w", job.Name, job.Cron, err, apperrors.ErrInvalidArgument)
		}
		jobs = append(jobs, &scheduledJob{Job: job, schedule: spec, last: start})
	}

	return &Runner{
		conn:     conn,
		logger:   logger,
		interval: cfg.Interval,
		now:      now,
		jobs:     jobs,
	}, nil
}

// Run starts the scheduling loop until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.tick(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick executes every due job and returns how many ran successfully.
func (r *Runner) tick(ctx context.Context) int {
	ran := 0
	for _, job := range r.jobs {
		current := r.now()
		due := job.schedule.Next(job.last)
		if due.After(current) {
			continue
		}
		job.last = current

		start := time.Now()
		if err := sqlhelper.Execute(ctx, r.conn, job.SQL, job.Args...); err != nil {
			r.logger.Error("scheduled statement failed", "job", job.Name, "due", due, "err", err)
			continue
		}
		ran++
		r.logger.Info("scheduled statement executed", "job", job.Name, "due", due, "duration", time.Since(start))
	}
	return ran
}
