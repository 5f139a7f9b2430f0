package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/signalist/alert-monitor/internal/metrics"
	"github.com/signalist/alert-monitor/internal/monitor"
)

// Scheduler drives monitoring cycles on a cron cadence. Overlapping ticks are
// skipped, not queued: if a cycle is still running when the next tick
// arrives, that tick is dropped and logged.
type Scheduler struct {
	cron   *cron.Cron
	engine *monitor.Engine
	logger *slog.Logger
	spec   string

	ctx context.Context
}

// New creates a scheduler for the given cron expression (standard 5-field
// format, e.g. "*/15 9-16 * * 1-5" for every 15 minutes during market hours).
func New(engine *monitor.Engine, logger *slog.Logger, spec string) (*Scheduler, error) {
	s := &Scheduler{
		engine: engine,
		logger: logger,
		spec:   spec,
		ctx:    context.Background(),
	}

	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))
	if _, err := s.cron.AddFunc(spec, s.runCycle); err != nil {
		return nil, fmt.Errorf("register cycle schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the cadence and blocks until ctx is cancelled, then waits for an
// in-flight cycle to finish before returning.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runCycle() {
	if _, err := s.engine.RunOnce(s.ctx, time.Now()); err != nil {
		if errors.Is(err, monitor.ErrCycleInProgress) {
			// SkipIfStillRunning makes this unreachable from the cron path,
			// but a manually triggered cycle can still hold the lock.
			metrics.CyclesTotal.WithLabelValues("skipped").Inc()
			s.logger.Warn("tick skipped, cycle still running")
			return
		}
		s.logger.Error("cycle failed", "error", err)
	}
}

// cronLogger adapts slog to the cron.Logger interface so skipped ticks and
// recovered panics land in the structured log.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Info(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
