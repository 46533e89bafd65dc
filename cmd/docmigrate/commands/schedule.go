package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/metrics"
	"git.home.luguber.info/inful/docmigrate/internal/pipeline"
	"git.home.luguber.info/inful/docmigrate/internal/scheduler"
)

const scheduleName = "sync"

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	Interval    time.Duration `help:"Override schedule.interval"`
	Cron        string        `help:"Cron expression, takes precedence over the interval"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9090)"`
}

func (s *ScheduleCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Interval != 0 {
		if s.Interval < time.Minute {
			return foundationerrors.ValidationError("schedule interval must be at least 1m").
				WithContext("interval", s.Interval.String()).
				Build()
		}
		cfg.Schedule.Interval = config.Duration(s.Interval)
	}
	if s.Cron != "" {
		cfg.Schedule.Cron = s.Cron
	}
	if s.MetricsAddr != "" {
		cfg.Metrics.Enabled = true
	}

	ctx, cancel := signalContext()
	defer cancel()
	return RunSchedule(ctx, cfg, g.logger(), s.MetricsAddr)
}

// RunSchedule runs a pass immediately and then on every tick until ctx is done.
func RunSchedule(ctx context.Context, cfg *config.Config, logger *slog.Logger, metricsAddr string) error {
	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	runner, err := rt.runner(cfg.Schedule.Translate)
	if err != nil {
		return err
	}
	opts := pipeline.Options{Translate: cfg.Schedule.Translate}
	if cfg.Schedule.Publish || cfg.Publish.Enabled {
		opts.Publish = rt.publishFunc()
	}

	sched, err := scheduler.New(logger)
	if err != nil {
		return err
	}
	task := func(ctx context.Context) {
		rep, err := runner.Run(ctx, opts)
		rt.exportMetrics()
		if err != nil {
			logger.Error("Scheduled run failed", logfields.RunID(rep.RunID), logfields.Error(err))
		}
	}
	if cfg.Schedule.Cron != "" {
		_, err = sched.ScheduleCron(scheduleName, cfg.Schedule.Cron, true, task)
	} else {
		_, err = sched.ScheduleEvery(scheduleName, cfg.Schedule.Interval.Std(), true, task)
	}
	if err != nil {
		return err
	}

	var srv *http.Server
	if metricsAddr != "" && rt.recorder != nil {
		srv = &http.Server{
			Addr:              metricsAddr,
			Handler:           metrics.HTTPHandler(rt.recorder.Registry()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", slog.String("addr", metricsAddr), logfields.Error(err))
			}
		}()
		logger.Info("Serving metrics", slog.String("addr", metricsAddr))
	}

	sched.Start()
	logger.Info("Scheduler started", slog.Time("next_run", sched.NextRun()))
	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping scheduler...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", logfields.Error(err))
		}
	}
	if err := sched.Stop(); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "failed to stop scheduler").Build()
	}
	logger.Info("Scheduler stopped")
	return nil
}
