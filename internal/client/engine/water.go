package engine

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/hydrotrack/internal/client/ledger"
	"github.com/dmitrijs2005/hydrotrack/internal/client/models"
	"github.com/dmitrijs2005/hydrotrack/internal/common"
)

// AddWater records an intake of amountMl and returns the record id.
func (e *Engine) AddWater(ctx context.Context, amountMl int) (int64, error) {
	return e.appendRecord(ctx, amountMl, amountMl)
}

// RemoveWater records a correction of amountMl as a negative record. The
// history is never edited in place.
func (e *Engine) RemoveWater(ctx context.Context, amountMl int) (int64, error) {
	return e.appendRecord(ctx, amountMl, -amountMl)
}

func (e *Engine) appendRecord(ctx context.Context, input, signed int) (int64, error) {
	if input <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", common.ErrorInvalidInput)
	}
	identity, err := e.current()
	if err != nil {
		return 0, err
	}
	id, err := e.ledger.Append(ctx, identity, signed, e.clock.Now())
	if err != nil {
		return 0, err
	}
	return id, e.recordsChanged(ctx, identity)
}

// DeleteRecord removes one record of the active user.
func (e *Engine) DeleteRecord(ctx context.Context, id int64) error {
	identity, err := e.current()
	if err != nil {
		return err
	}
	if err := e.ledger.Delete(ctx, identity, id); err != nil {
		return err
	}
	return e.recordsChanged(ctx, identity)
}

// recordsChanged refreshes the cached consumption after a ledger write.
func (e *Engine) recordsChanged(ctx context.Context, identity string) error {
	if err := e.rollover(ctx, identity); err != nil {
		return err
	}
	today := e.today()
	total, err := e.ledger.TotalForUserAndDate(ctx, identity, today)
	if err != nil {
		return err
	}
	return e.storeConsumption(ctx, identity, today, total)
}

// TodayTotal is the signed ledger sum of the active user for today.
func (e *Engine) TodayTotal(ctx context.Context) (int, error) {
	identity, err := e.current()
	if err != nil {
		return 0, err
	}
	return e.ledger.TotalForUserAndDate(ctx, identity, e.today())
}

// ObserveToday follows today's total of the active user. The subscription
// is bound to the date it was opened on and keeps reporting that day after
// midnight; callers reopen it when the day changes.
func (e *Engine) ObserveToday(ctx context.Context) (*ledger.TotalSubscription, error) {
	identity, err := e.current()
	if err != nil {
		return nil, err
	}
	return e.ledger.ObserveTotal(ctx, identity, e.today())
}

// History lists every record of the active user, newest first.
func (e *Engine) History(ctx context.Context) ([]models.HydrationRecord, error) {
	identity, err := e.current()
	if err != nil {
		return nil, err
	}
	return e.ledger.AllForUser(ctx, identity)
}
