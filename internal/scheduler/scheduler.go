// Package scheduler runs a task periodically without overlapping executions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docmigrate/internal/logfields"
)

// Task is one scheduled execution. ctx is cancelled when the scheduler stops.
type Task func(ctx context.Context)

// Scheduler wraps a gocron scheduler. Jobs run in singleton mode: an
// execution that is still running when the next one is due pushes the next
// one to the following slot instead of overlapping.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler. A nil logger uses slog.Default.
func New(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{scheduler: s, logger: logger, ctx: ctx, cancel: cancel}, nil
}

// ScheduleEvery runs task every interval. With immediate set the first run
// starts as soon as the scheduler starts. Returns the job id.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, immediate bool, task Task) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	return s.schedule(name, gocron.DurationJob(interval), immediate, task)
}

// ScheduleCron runs task on a 5-field cron expression. Returns the job id.
func (s *Scheduler) ScheduleCron(name, expr string, immediate bool, task Task) (string, error) {
	return s.schedule(name, gocron.CronJob(expr, false), immediate, task)
}

func (s *Scheduler) schedule(name string, def gocron.JobDefinition, immediate bool, task Task) (string, error) {
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(def, gocron.NewTask(s.run, name, task), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create job %s: %w", name, err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) run(name string, task Task) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	s.logger.Info("Scheduled run starting", logfields.ScheduleName(name))
	task(ctx)
	s.logger.Info("Scheduled run finished",
		logfields.ScheduleName(name),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}

// NextRun returns the next scheduled time of the first job, or the zero time.
func (s *Scheduler) NextRun() time.Time {
	for _, j := range s.scheduler.Jobs() {
		if next, err := j.NextRun(); err == nil {
			return next
		}
	}
	return time.Time{}
}

// Start begins executing jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	return s.scheduler.Shutdown()
}
