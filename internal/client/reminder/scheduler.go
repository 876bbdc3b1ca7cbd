package reminder

import (
	"context"
	"time"

	"github.com/dmitrijs2005/hydrotrack/internal/clock"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
)

// SnapshotFunc reads the current goal, consumption and unit. Hour is
// filled in by the scheduler.
type SnapshotFunc func(ctx context.Context) (Snapshot, error)

// Notifier delivers a reminder.
type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, m Message) error

func (f NotifierFunc) Notify(ctx context.Context, m Message) error { return f(ctx, m) }

// Schedule configures a Scheduler.
type Schedule struct {
	// AlignHour is the local hour of the first run.
	AlignHour int
	Interval  time.Duration
	Window    Window
	Location  *time.Location
}

// DefaultSchedule runs at 06:00 and then every 3 hours.
var DefaultSchedule = Schedule{
	AlignHour: 6,
	Interval:  3 * time.Hour,
	Window:    DefaultWindow,
	Location:  time.Local,
}

// Scheduler runs Plan on a fixed cadence.
type Scheduler struct {
	schedule Schedule
	clock    clock.Clock
	snapshot SnapshotFunc
	notifier Notifier
	log      logging.Logger
}

// NewScheduler returns a Scheduler. A zero Interval or nil Location falls
// back to DefaultSchedule's.
func NewScheduler(schedule Schedule, clk clock.Clock, snapshot SnapshotFunc, notifier Notifier, log logging.Logger) *Scheduler {
	if schedule.Interval <= 0 {
		schedule.Interval = DefaultSchedule.Interval
	}
	if schedule.Location == nil {
		schedule.Location = time.Local
	}
	return &Scheduler{
		schedule: schedule,
		clock:    clk,
		snapshot: snapshot,
		notifier: notifier,
		log:      log.With("module", "reminder"),
	}
}

// NextAlignment returns the first time at or after now whose local clock
// reads hour:00.
func NextAlignment(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	at := time.Date(y, m, d, hour, 0, 0, 0, now.Location())
	if at.Before(now) {
		at = time.Date(y, m, d+1, hour, 0, 0, 0, now.Location())
	}
	return at
}

// Run blocks until ctx is done, firing at the next alignment and then
// every Interval.
func (s *Scheduler) Run(ctx context.Context) {
	now := s.clock.Now().In(s.schedule.Location)
	first := NextAlignment(now, s.schedule.AlignHour)
	s.log.Info(ctx, "reminder schedule started", "first_run", first.Format(time.RFC3339), "interval", s.schedule.Interval.String())

	select {
	case <-ctx.Done():
		return
	case t := <-s.clock.After(first.Sub(now)):
		s.Fire(ctx, t)
	}

	ticker := s.clock.NewTicker(s.schedule.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			s.Fire(ctx, t)
		}
	}
}

// Fire runs one reminder decision at t and reports whether a message was
// delivered. Failures are logged, never returned.
func (s *Scheduler) Fire(ctx context.Context, t time.Time) bool {
	snap, err := s.snapshot(ctx)
	if err != nil {
		s.log.Warn(ctx, "reminder skipped, snapshot unavailable", "error", err)
		return false
	}
	snap.Hour = t.In(s.schedule.Location).Hour()

	msg, ok := Plan(snap, s.schedule.Window)
	if !ok {
		s.log.Debug(ctx, "no reminder due", "hour", snap.Hour, "goal_ml", snap.GoalMl, "consumed_ml", snap.ConsumedMl)
		return false
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log.Error(ctx, "failed to deliver reminder", "error", err)
		return false
	}
	return true
}
