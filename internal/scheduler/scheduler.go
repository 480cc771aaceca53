// Package scheduler triggers one pipeline run per day at a fixed time.
package scheduler

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/realcrm/lead-harvester/internal/pipeline"
)

// Task is one full pipeline execution.
type Task func(ctx context.Context) error

// Scheduler fires a Task daily at a wall-clock time. A file lock keeps
// runs from overlapping: when the previous run is still holding the lock
// the new trigger is dropped, not queued.
type Scheduler struct {
	at     time.Time // only the HH:MM fields matter
	lock   *flock.Flock
	clock  pipeline.Clock
	logger *zap.Logger
}

// New builds a Scheduler firing at the given HH:MM wall-clock time.
func New(at time.Time, lockPath string, clock pipeline.Clock, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		at:     at,
		lock:   flock.New(lockPath),
		clock:  clock,
		logger: logger,
	}
}

// NextTrigger returns the first instant at or after now matching the
// configured wall-clock time.
func (s *Scheduler) NextTrigger(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(),
		s.at.Hour(), s.at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks, executing task once per day until ctx finishes.
func (s *Scheduler) Run(ctx context.Context, task Task) error {
	for {
		now := s.clock.Now()
		next := s.NextTrigger(now)
		s.logger.Info("next run scheduled", zap.Time("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		s.RunOnce(ctx, task)
	}
}

// RunOnce executes task immediately if the run lock is free; a held lock
// means a run is still in flight, and the trigger is dropped.
func (s *Scheduler) RunOnce(ctx context.Context, task Task) {
	locked, err := s.lock.TryLock()
	if err != nil {
		s.logger.Error("acquire run lock failed", zap.Error(err))
		return
	}
	if !locked {
		s.logger.Warn("previous run still in progress, dropping trigger")
		return
	}
	defer func() {
		if unlockErr := s.lock.Unlock(); unlockErr != nil {
			s.logger.Error("release run lock failed", zap.Error(unlockErr))
		}
	}()

	if err := task(ctx); err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
	}
}

// LockPath reports the lock file in use, mainly for logging.
func (s *Scheduler) LockPath() string {
	return s.lock.Path()
}
