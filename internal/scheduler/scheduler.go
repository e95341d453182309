// Package scheduler runs maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job names
const (
	JobReconcile = "reconcile"
	JobSnapshot  = "snapshot"
)

// Func is the body of a scheduled job
type Func func(ctx context.Context) error

// Scheduler wraps a cron runner with named jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]Func

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped Scheduler
func New(logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		jobs:   make(map[string]Func),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under name with a standard five-field cron schedule.
// An empty schedule leaves the job disabled but still callable through RunNow.
func (s *Scheduler) Add(name, schedule string, fn Func) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	if schedule != "" {
		if _, err := s.cron.AddFunc(schedule, func() { _ = s.run(name, fn) }); err != nil {
			return fmt.Errorf("invalid schedule %q for job %q: %w", schedule, name, err)
		}
	}
	s.jobs[name] = fn

	s.logger.Info("job registered",
		slog.String("job", name),
		slog.String("schedule", schedule),
		slog.Bool("enabled", schedule != ""),
	)
	return nil
}

// RunNow executes a registered job immediately
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	fn, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return fn(ctx)
}

// Scheduled returns how many jobs have an active schedule
func (s *Scheduler) Scheduled() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", s.Scheduled()))
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(name string, fn Func) error {
	s.logger.Info("job started", slog.String("job", name))
	if err := fn(s.ctx); err != nil {
		s.logger.Error("job failed", slog.String("job", name), slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("job finished", slog.String("job", name))
	return nil
}

// cronLogger adapts slog to cron's logger interface
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
