package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/hydrotrack/internal/client/ledger"
	"github.com/dmitrijs2005/hydrotrack/internal/client/prefs"
	"github.com/dmitrijs2005/hydrotrack/internal/client/reminder"
	"github.com/dmitrijs2005/hydrotrack/internal/client/remote"
	"github.com/dmitrijs2005/hydrotrack/internal/client/repositories/records"
	"github.com/dmitrijs2005/hydrotrack/internal/client/storage"
	"github.com/dmitrijs2005/hydrotrack/internal/client/syncer"
	"github.com/dmitrijs2005/hydrotrack/internal/clock"
	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	pb "github.com/dmitrijs2005/hydrotrack/internal/proto"
	"github.com/dmitrijs2005/hydrotrack/internal/timex"
	"github.com/dmitrijs2005/hydrotrack/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ana   = "ana@example.com"
	bruno = "bruno@example.com"
)

type fixture struct {
	engine *Engine
	prefs  *prefs.Store
	ledger *ledger.Ledger
	remote *remote.MemoryStore
	clock  *clock.FakeClock
}

func newFixture(t *testing.T, now time.Time, notifier reminder.Notifier) *fixture {
	t.Helper()
	db, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)

	log := logging.Discard()
	fake := clock.Fake(now)
	store := prefs.NewStore(db, log)
	l := ledger.New(db, time.UTC, log)
	rs := remote.NewMemoryStore()
	coord := syncer.New(store, rs, log, syncer.Options{PullAttempts: 1, Clock: fake})

	e := New(Deps{Prefs: store, Ledger: l, Sync: coord, Clock: fake, Notifier: notifier, Log: log})
	t.Cleanup(func() {
		e.Close(context.Background())
		_ = db.Close()
	})
	return &fixture{engine: e, prefs: store, ledger: l, remote: rs, clock: fake}
}

func (f *fixture) login(t *testing.T, identity string) {
	t.Helper()
	require.NoError(t, f.engine.SetIdentity(context.Background(), &Session{Identity: identity}))
}

func (f *fixture) cached(t *testing.T, identity string) (int, timex.Date) {
	t.Helper()
	ctx := context.Background()
	consumed, err := prefs.Get(ctx, f.prefs, prefs.User(identity), prefs.KeyDailyConsumptionMl)
	require.NoError(t, err)
	date, err := prefs.Get(ctx, f.prefs, prefs.User(identity), prefs.KeyLastConsumptionDate)
	require.NoError(t, err)
	return consumed, date
}

func (f *fixture) remoteField(identity, field string) func() string {
	return func() string {
		rec, err := f.remote.GetUserRecord(context.Background(), identity)
		if err != nil {
			return ""
		}
		v, _ := rec.Get(field)
		return v
	}
}

var morning = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

func TestEngine_AddWaterThenRemind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	f.login(t, ana)

	_, err := f.engine.AddWater(ctx, 250)
	require.NoError(t, err)
	_, err = f.engine.AddWater(ctx, 300)
	require.NoError(t, err)

	total, err := f.engine.TodayTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 550, total)

	consumed, date := f.cached(t, ana)
	assert.Equal(t, 550, consumed)
	assert.Equal(t, timex.Date{Year: 2024, Month: 1, Day: 2}, date)

	msg, ok, err := f.engine.ReminderTick(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, reminder.Title, msg.Title)
	assert.Equal(t, "Faltam 1450.0 ml para você bater sua meta. Vamos lá!", msg.Body)

	assert.Eventually(t, func() bool {
		return f.remoteField(ana, pb.FieldDailyConsumptionMl)() == "550"
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_RemoveWaterAppendsNegativeRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	f.login(t, ana)

	_, err := f.engine.AddWater(ctx, 200)
	require.NoError(t, err)
	_, err = f.engine.RemoveWater(ctx, 500)
	require.NoError(t, err)

	total, err := f.engine.TodayTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, -300, total, "ledger keeps signed rows")

	consumed, _ := f.cached(t, ana)
	assert.Equal(t, 0, consumed, "cached consumption is clamped")

	history, err := f.engine.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, -500, history[0].AmountMl)
	assert.Equal(t, 200, history[1].AmountMl)
}

func TestEngine_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)

	_, err := f.engine.AddWater(ctx, 250)
	require.ErrorIs(t, err, common.ErrNoActiveSession)

	f.login(t, ana)
	_, err = f.engine.AddWater(ctx, 0)
	require.ErrorIs(t, err, common.ErrorInvalidInput)
	_, err = f.engine.RemoveWater(ctx, -5)
	require.ErrorIs(t, err, common.ErrorInvalidInput)
	require.ErrorIs(t, f.engine.SetDailyGoal(ctx, 0), common.ErrorInvalidInput)
	require.ErrorIs(t, f.engine.UpdateProfile(ctx, Profile{Name: " "}), common.ErrorInvalidInput)
	require.ErrorIs(t, f.engine.SetIdentity(ctx, &Session{Identity: "  "}), common.ErrorInvalidInput)
}

func TestEngine_DeleteRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	f.login(t, ana)

	id, err := f.engine.AddWater(ctx, 400)
	require.NoError(t, err)
	_, err = f.engine.AddWater(ctx, 100)
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteRecord(ctx, id))
	total, err := f.engine.TodayTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, total)
	consumed, _ := f.cached(t, ana)
	assert.Equal(t, 100, consumed)

	require.ErrorIs(t, f.engine.DeleteRecord(ctx, id), common.ErrorNotFound)
}

func TestEngine_RolloverOnLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	require.NoError(t, f.prefs.SetMany(ctx, prefs.User(ana),
		prefs.KeyDailyConsumptionMl.To(900),
		prefs.KeyLastConsumptionDate.To(timex.Date{Year: 2024, Month: 1, Day: 1}),
	))

	f.login(t, ana)

	consumed, date := f.cached(t, ana)
	assert.Equal(t, 0, consumed)
	assert.Equal(t, timex.Date{Year: 2024, Month: 1, Day: 2}, date)
}

func TestEngine_RolloverBeforeReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	f.login(t, ana)

	_, err := f.engine.AddWater(ctx, 1800)
	require.NoError(t, err)
	_, ok, err := f.engine.ReminderTick(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	f.clock.Advance(24 * time.Hour)
	snap, err := f.engine.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.ConsumedMl, "yesterday's figure is never used")
	assert.Equal(t, 10, snap.Hour)

	_, date := f.cached(t, ana)
	assert.Equal(t, timex.Date{Year: 2024, Month: 1, Day: 3}, date)
}

func TestEngine_PullOnLoginUsesRemoteValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	require.NoError(t, f.remote.SetField(ctx, ana, pb.FieldDailyGoalMl, "3000", 1))
	require.NoError(t, f.remote.SetField(ctx, ana, pb.FieldDailyConsumptionMl, "700", 1))
	require.NoError(t, f.remote.SetField(ctx, ana, pb.FieldLastConsumptionDate, "2024-01-02", 1))

	f.login(t, ana)

	s, err := f.engine.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3000, s.DailyGoalMl)
	consumed, _ := f.cached(t, ana)
	assert.Equal(t, 700, consumed, "figure from another device survives an empty local day")
}

func TestEngine_PulledStaleDateIsRolledOver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	require.NoError(t, f.remote.SetField(ctx, ana, pb.FieldDailyConsumptionMl, "700", 1))
	require.NoError(t, f.remote.SetField(ctx, ana, pb.FieldLastConsumptionDate, "2023-12-31", 1))

	f.login(t, ana)

	consumed, date := f.cached(t, ana)
	assert.Equal(t, 0, consumed)
	assert.Equal(t, timex.Date{Year: 2024, Month: 1, Day: 2}, date)
}

func TestEngine_PushFailureDoesNotReachCaller(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	f.login(t, ana)
	f.remote.Fail(common.ErrorUnavailable)

	_, err := f.engine.AddWater(ctx, 250)
	require.NoError(t, err)
	require.NoError(t, f.engine.SetDailyGoal(ctx, 2500))

	total, err := f.engine.TodayTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250, total)

	f.remote.Fail(nil)
	assert.Eventually(t, func() bool {
		require.NoError(t, f.engine.RetryPending(ctx))
		return f.remoteField(ana, pb.FieldDailyGoalMl)() == "2500"
	}, time.Second, 10*time.Millisecond)
}

func TestEngine_LoginSurvivesUnreachableRemote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	f.remote.Fail(common.ErrorUnavailable)

	f.login(t, ana)
	id, ok := f.engine.Identity()
	assert.True(t, ok)
	assert.Equal(t, ana, id)
	assert.True(t, f.engine.SyncPending())

	f.remote.Fail(nil)
	require.NoError(t, f.remote.SetField(ctx, ana, pb.FieldDailyGoalMl, "2750", 1))
	require.NoError(t, f.engine.RetryPending(ctx))
	assert.False(t, f.engine.SyncPending())

	s, err := f.engine.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2750, s.DailyGoalMl)
}

func TestEngine_SwitchIdentityRestoresValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)

	f.login(t, ana)
	require.NoError(t, f.engine.SetDailyGoal(ctx, 2600))
	require.NoError(t, f.engine.SetWaterUnit(ctx, units.Cups))
	assert.Eventually(t, func() bool {
		return f.remoteField(ana, pb.FieldDailyGoalMl)() == "2600"
	}, time.Second, 5*time.Millisecond)

	f.login(t, bruno)
	s, err := f.engine.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs.DefaultDailyGoalMl, s.DailyGoalMl)
	assert.Equal(t, units.ML, s.Unit)

	f.login(t, ana)
	s, err = f.engine.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2600, s.DailyGoalMl)
	assert.Equal(t, units.Cups, s.Unit)
}

func TestEngine_LoginInitializesProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	require.NoError(t, f.engine.SetIdentity(ctx, &Session{Identity: ana, DisplayName: "Ana Souza"}))

	s, err := f.engine.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", s.Name)
	assert.Equal(t, ana, s.Email)

	last, err := f.engine.LastIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, ana, last)

	require.NoError(t, f.engine.UpdateProfile(ctx, Profile{Name: "Ana S.", Email: "ana@work.example", Phone: "555"}))
	s, err = f.engine.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, Profile{Name: "Ana S.", Email: "ana@work.example", Phone: "555"}, s.Profile)

	require.NoError(t, f.engine.SetIdentity(ctx, nil))
	last, err = f.engine.LastIdentity(ctx)
	require.NoError(t, err)
	assert.Empty(t, last)
	_, err = f.engine.Settings(ctx)
	require.ErrorIs(t, err, common.ErrNoActiveSession)
}

func TestEngine_ToggleDarkModeIsGlobal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)

	on, err := f.engine.ToggleDarkMode(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	f.login(t, bruno)
	s, err := f.engine.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, s.DarkMode)
}

func TestEngine_ObserveToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	f.login(t, ana)

	sub, err := f.engine.ObserveToday(ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, 0, <-sub.C)

	_, err = f.engine.AddWater(ctx, 250)
	require.NoError(t, err)
	select {
	case total := <-sub.C:
		assert.Equal(t, 250, total)
	case <-time.After(time.Second):
		t.Fatal("total not delivered")
	}
}

func TestEngine_ObserveTodayStaysOnItsDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	f.login(t, ana)

	_, err := f.engine.AddWater(ctx, 250)
	require.NoError(t, err)
	sub, err := f.engine.ObserveToday(ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, 250, <-sub.C)

	f.clock.Advance(24 * time.Hour)
	_, err = f.engine.AddWater(ctx, 100)
	require.NoError(t, err)
	select {
	case total := <-sub.C:
		assert.Equal(t, 250, total, "bound to the day it was opened on")
	case <-time.After(time.Second):
		t.Fatal("total not delivered")
	}

	next, err := f.engine.ObserveToday(ctx)
	require.NoError(t, err)
	defer next.Close()
	assert.Equal(t, 100, <-next.C)
}

func TestEngine_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	f.login(t, ana)
	_, err := f.engine.AddWater(ctx, 250)
	require.NoError(t, err)
	require.NoError(t, f.engine.SetDailyGoal(ctx, 2600))

	require.NoError(t, f.engine.DeleteAccount(ctx))

	_, ok := f.engine.Identity()
	assert.False(t, ok)
	total, err := f.ledger.TotalForUserAndDate(ctx, ana, f.ledger.Today(morning))
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	goal, err := prefs.Get(ctx, f.prefs, prefs.User(ana), prefs.KeyDailyGoalMl)
	require.NoError(t, err)
	assert.Equal(t, prefs.DefaultDailyGoalMl, goal)
	rec, err := f.remote.GetUserRecord(ctx, ana)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestEngine_DeleteAccountReportsFailedStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, morning, nil)
	f.login(t, ana)
	_, err := f.engine.AddWater(ctx, 250)
	require.NoError(t, err)

	f.remote.Fail(common.ErrorUnavailable)
	err = f.engine.DeleteAccount(ctx)

	var de *DeletionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, StepRemote, de.Step)
	assert.Equal(t, ana, de.Identity)
	require.ErrorIs(t, err, common.ErrorUnavailable)

	total, err := f.ledger.TotalForUserAndDate(ctx, ana, f.ledger.Today(morning))
	require.NoError(t, err)
	assert.Equal(t, 0, total, "earlier steps completed")

	f.remote.Fail(nil)
	require.NoError(t, f.engine.ResumeDeletion(ctx, de.Identity, de.Step))
	rec, err := f.remote.GetUserRecord(ctx, ana)
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, f.engine.ResumeDeletion(ctx, ana, StepLedger), "whole cascade is idempotent")
}

func TestEngine_ReminderScheduleStopsOnLogout(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)
	delivered := make(chan reminder.Message, 4)
	f := newFixture(t, start, reminder.NotifierFunc(func(ctx context.Context, m reminder.Message) error {
		delivered <- m
		return nil
	}))
	f.login(t, ana)

	f.clock.WaitForWaiters(1)
	f.clock.Advance(time.Hour)
	select {
	case m := <-delivered:
		assert.Equal(t, "Faltam 2000.0 ml para você bater sua meta. Vamos lá!", m.Body)
	case <-time.After(time.Second):
		t.Fatal("no reminder at 06:00")
	}

	require.NoError(t, f.engine.SetIdentity(ctx, nil))
	f.clock.Advance(3 * time.Hour)
	select {
	case m := <-delivered:
		t.Fatalf("reminder after logout: %+v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

// flakyRecords fails SumForUserAndDate until failures runs out.
type flakyRecords struct {
	records.Repository
	failures int
}

func (f *flakyRecords) SumForUserAndDate(ctx context.Context, userID, localDate string) (int, error) {
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("disk I/O error")
	}
	return f.Repository.SumForUserAndDate(ctx, userID, localDate)
}

func TestEngine_FailedLoginCanBeRetried(t *testing.T) {
	ctx := context.Background()
	db, err := storage.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)

	start := time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)
	log := logging.Discard()
	fake := clock.Fake(start)
	store := prefs.NewStore(db, log)
	repo := &flakyRecords{Repository: records.NewSQLiteRepository(db), failures: 1}
	l := ledger.NewWithRepository(repo, time.UTC, log)
	rs := remote.NewMemoryStore()
	coord := syncer.New(store, rs, log, syncer.Options{PullAttempts: 1, Clock: fake})

	delivered := make(chan reminder.Message, 4)
	e := New(Deps{Prefs: store, Ledger: l, Sync: coord, Clock: fake, Log: log,
		Notifier: reminder.NotifierFunc(func(ctx context.Context, m reminder.Message) error {
			delivered <- m
			return nil
		})})
	t.Cleanup(func() {
		e.Close(context.Background())
		_ = db.Close()
	})

	err = e.SetIdentity(ctx, &Session{Identity: ana})
	require.EqualError(t, err, "disk I/O error")
	_, ok := e.Identity()
	assert.False(t, ok, "failed login leaves no active session")
	_, err = e.AddWater(ctx, 100)
	require.ErrorIs(t, err, common.ErrNoActiveSession)

	require.NoError(t, e.SetIdentity(ctx, &Session{Identity: ana}))
	id, ok := e.Identity()
	require.True(t, ok)
	assert.Equal(t, ana, id)

	require.NoError(t, e.SetDailyGoal(ctx, 2500))
	assert.Eventually(t, func() bool {
		rec, err := rs.GetUserRecord(ctx, ana)
		if err != nil || rec == nil {
			return false
		}
		v, _ := rec.Get(pb.FieldDailyGoalMl)
		return v == "2500"
	}, time.Second, 5*time.Millisecond, "pushes flow after the retried login")

	fake.WaitForWaiters(1)
	fake.Advance(time.Hour)
	select {
	case m := <-delivered:
		assert.Equal(t, reminder.Title, m.Title)
	case <-time.After(time.Second):
		t.Fatal("no reminder at 06:00 after the retried login")
	}
}
