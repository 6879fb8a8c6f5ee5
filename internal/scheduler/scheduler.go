// Package scheduler enforces the unlock window.
//
// The deadline is never stored here: it is always lastUnlockTime plus
// autoRevertMinutes from the persisted record. The pending alarm is only a
// wake-up hint, so after a restart Recover rebuilds it from the record, or
// reverts at once if the window closed while the process was down.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/illarion/dehook/internal/alarm"
	"github.com/illarion/dehook/internal/clock"
	"github.com/illarion/dehook/internal/settings"
	"go.uber.org/zap"
)

// AlarmName is the single revert task
const AlarmName = "dehook_auto_revert"

// Target is what the scheduler reads and reverts
type Target interface {
	Settings(ctx context.Context) (*settings.AppSettings, error)
	Revert(ctx context.Context) error
}

// Scheduler keeps at most one pending revert task
type Scheduler struct {
	alarms *alarm.Alarms
	clock  clock.Clock
	logger *zap.Logger

	mu     sync.Mutex
	target Target
}

// New creates a scheduler on top of alarms. Bind must be called before
// any alarm can fire.
func New(alarms *alarm.Alarms, c clock.Clock, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		alarms: alarms,
		clock:  c,
		logger: logger,
	}
	alarms.OnAlarm(s.onAlarm)
	return s
}

// Bind sets the state machine reverted on fire
func (s *Scheduler) Bind(t Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = t
}

// Schedule replaces the pending task with one firing after d
func (s *Scheduler) Schedule(d time.Duration) {
	a := s.alarms.Create(AlarmName, d)
	s.logger.Debug("auto-revert scheduled", zap.Time("at", a.ScheduledTime))
}

// ScheduleAt replaces the pending task with one firing at t. A t in the
// past fires as soon as possible.
func (s *Scheduler) ScheduleAt(t time.Time) {
	s.Schedule(t.Sub(s.clock.Now()))
}

// Cancel removes the pending task, if any
func (s *Scheduler) Cancel() {
	if s.alarms.Clear(AlarmName) {
		s.logger.Debug("auto-revert cancelled")
	}
}

// Pending returns when the pending task fires
func (s *Scheduler) Pending() (time.Time, bool) {
	a, ok := s.alarms.Get(AlarmName)
	if !ok {
		return time.Time{}, false
	}
	return a.ScheduledTime, true
}

// Recover reconciles the alarm table with the persisted record. It is
// called once on startup, before requests are served.
func (s *Scheduler) Recover(ctx context.Context) error {
	target := s.boundTarget()
	if target == nil {
		return fmt.Errorf("scheduler has no target")
	}

	current, err := target.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	p := current.Protection
	if !p.AutoRevertEnabled || p.IsLocked {
		return nil
	}
	if _, ok := s.Pending(); ok {
		return nil
	}

	deadline, ok := p.Deadline()
	if !ok {
		s.logger.Warn("unlocked without an unlock time, reverting")
		return target.Revert(ctx)
	}

	remaining := deadline.Sub(s.clock.Now())
	if remaining <= 0 {
		s.logger.Info("unlock window expired while stopped, reverting",
			zap.Time("deadline", deadline))
		return target.Revert(ctx)
	}

	s.logger.Info("auto-revert recovered", zap.Duration("remaining", remaining))
	s.Schedule(remaining)
	return nil
}

func (s *Scheduler) boundTarget() Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *Scheduler) onAlarm(ctx context.Context, a alarm.Alarm) {
	if a.Name != AlarmName {
		return
	}
	target := s.boundTarget()
	if target == nil {
		s.logger.Error("auto-revert fired with no target")
		return
	}
	if err := target.Revert(ctx); err != nil {
		s.logger.Error("auto-revert failed", zap.Error(err))
	}
}
