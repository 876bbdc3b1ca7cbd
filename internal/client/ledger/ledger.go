// Package ledger implements the append-only consumption ledger: signed
// hydration records per user, live daily totals and newest-first history.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/hydrotrack/internal/client/models"
	"github.com/dmitrijs2005/hydrotrack/internal/client/repositories/records"
	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	"github.com/dmitrijs2005/hydrotrack/internal/timex"
)

// Ledger is safe for concurrent use.
type Ledger struct {
	repo  records.Repository
	loc   *time.Location
	log   logging.Logger
	stamp stamper

	mu       sync.Mutex
	watchers map[string][]*TotalSubscription
}

// New returns a Ledger over db. Calendar days are computed in loc.
func New(db *sql.DB, loc *time.Location, log logging.Logger) *Ledger {
	return NewWithRepository(records.NewSQLiteRepository(db), loc, log)
}

// NewWithRepository is New with an explicit repository.
func NewWithRepository(repo records.Repository, loc *time.Location, log logging.Logger) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{
		repo:     repo,
		loc:      loc,
		log:      log.With("module", "ledger"),
		watchers: make(map[string][]*TotalSubscription),
	}
}

// Location is the zone calendar days are computed in.
func (l *Ledger) Location() *time.Location { return l.loc }

// Today is the current calendar date in the ledger's location.
func (l *Ledger) Today(now time.Time) timex.Date {
	return timex.DateOf(now.In(l.loc))
}

// Append stores a signed amount for userID at ts and returns the record id.
// Timestamps are made strictly increasing, so two appends within the same
// clock tick stay distinct and ordered.
func (l *Ledger) Append(ctx context.Context, userID string, amountMl int, ts time.Time) (int64, error) {
	if userID == "" {
		return 0, common.ErrNoActiveSession
	}
	if amountMl == 0 {
		return 0, fmt.Errorf("%w: amount must not be zero", common.ErrorInvalidInput)
	}

	ts = l.stamp.next(ts).In(l.loc)
	id, err := l.repo.Insert(ctx, &models.HydrationRecord{
		UserID:    userID,
		AmountMl:  amountMl,
		Timestamp: ts,
		LocalDate: timex.DateOf(ts).String(),
	})
	if err != nil {
		return 0, err
	}

	l.log.Debug(ctx, "record appended", "id", id, "amount_ml", amountMl)
	l.refresh(ctx, userID)
	return id, nil
}

// Delete removes exactly one record of userID or fails with
// common.ErrorNotFound.
func (l *Ledger) Delete(ctx context.Context, userID string, id int64) error {
	if err := l.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	l.refresh(ctx, userID)
	return nil
}

// TotalForUserAndDate sums every record of userID that falls on date in the
// ledger's location.
func (l *Ledger) TotalForUserAndDate(ctx context.Context, userID string, date timex.Date) (int, error) {
	return l.repo.SumForUserAndDate(ctx, userID, date.String())
}

// AllForUser returns the full history of userID, newest first.
func (l *Ledger) AllForUser(ctx context.Context, userID string) ([]models.HydrationRecord, error) {
	list, err := l.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Timestamp = list[i].Timestamp.In(l.loc)
	}
	return list, nil
}

// PurgeUser deletes every record of userID. Purging an empty history is
// not an error.
func (l *Ledger) PurgeUser(ctx context.Context, userID string) (int64, error) {
	n, err := l.repo.DeleteForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	l.refresh(ctx, userID)
	return n, nil
}

type stamper struct {
	mu   sync.Mutex
	last int64
}

func (s *stamper) next(t time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := t.UnixNano()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return time.Unix(0, n)
}
