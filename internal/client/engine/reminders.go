package engine

import (
	"context"

	"github.com/dmitrijs2005/hydrotrack/internal/client/prefs"
	"github.com/dmitrijs2005/hydrotrack/internal/client/reminder"
)

// Snapshot reads the reminder inputs of the active user at the current
// hour. A pending day rollover is applied first.
func (e *Engine) Snapshot(ctx context.Context) (reminder.Snapshot, error) {
	identity, err := e.current()
	if err != nil {
		return reminder.Snapshot{}, err
	}
	snap, err := e.snapshotOf(ctx, identity)
	if err != nil {
		return reminder.Snapshot{}, err
	}
	snap.Hour = e.clock.Now().In(e.schedule.Location).Hour()
	return snap, nil
}

func (e *Engine) snapshotOf(ctx context.Context, identity string) (reminder.Snapshot, error) {
	if err := e.rollover(ctx, identity); err != nil {
		return reminder.Snapshot{}, err
	}
	ns := prefs.User(identity)
	goal, err := prefs.Get(ctx, e.prefs, ns, prefs.KeyDailyGoalMl)
	if err != nil {
		return reminder.Snapshot{}, err
	}
	consumed, err := prefs.Get(ctx, e.prefs, ns, prefs.KeyDailyConsumptionMl)
	if err != nil {
		return reminder.Snapshot{}, err
	}
	unit, err := prefs.Get(ctx, e.prefs, ns, prefs.KeyWaterUnit)
	if err != nil {
		return reminder.Snapshot{}, err
	}
	return reminder.Snapshot{GoalMl: goal, ConsumedMl: max(consumed, 0), Unit: unit}, nil
}

// ReminderTick computes the reminder due now, without delivering it.
func (e *Engine) ReminderTick(ctx context.Context) (reminder.Message, bool, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return reminder.Message{}, false, err
	}
	msg, ok := reminder.Plan(snap, e.schedule.Window)
	return msg, ok, nil
}
