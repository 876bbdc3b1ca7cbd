// Package rollover resets the cached daily consumption when the calendar
// day changes.
package rollover

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/hydrotrack/internal/client/prefs"
	"github.com/dmitrijs2005/hydrotrack/internal/timex"
)

// ShouldReset reports whether consumption recorded on last is stale on
// today.
func ShouldReset(today, last timex.Date) bool {
	return today != last
}

// Apply resets dailyConsumptionMl to 0 and sets lastConsumptionDate to
// today for identity, in a single transaction, when ShouldReset says so.
// It reports whether a reset happened. Running it twice on the same day
// is a no-op.
func Apply(ctx context.Context, store *prefs.Store, identity string, today timex.Date) (bool, error) {
	ns := prefs.User(identity)
	last, err := prefs.Get(ctx, store, ns, prefs.KeyLastConsumptionDate)
	if err != nil {
		return false, fmt.Errorf("failed to read last consumption date: %w", err)
	}
	if !ShouldReset(today, last) {
		return false, nil
	}

	err = store.SetMany(ctx, ns,
		prefs.KeyDailyConsumptionMl.To(0),
		prefs.KeyLastConsumptionDate.To(today),
	)
	if err != nil {
		return false, fmt.Errorf("failed to reset daily consumption: %w", err)
	}
	return true, nil
}
