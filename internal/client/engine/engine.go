// Package engine is the per-user hydration state engine. It ties the
// preference store, the consumption ledger, daily rollover, remote sync and
// reminders together behind one API driven by the host application.
//
// The engine never looks up the current user on its own: the host reports
// identity changes through SetIdentity and every other call acts on the
// identity set last.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/dmitrijs2005/hydrotrack/internal/client/ledger"
	"github.com/dmitrijs2005/hydrotrack/internal/client/prefs"
	"github.com/dmitrijs2005/hydrotrack/internal/client/reminder"
	"github.com/dmitrijs2005/hydrotrack/internal/client/rollover"
	"github.com/dmitrijs2005/hydrotrack/internal/client/syncer"
	"github.com/dmitrijs2005/hydrotrack/internal/clock"
	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	"github.com/dmitrijs2005/hydrotrack/internal/timex"
)

// Session is an authenticated user as reported by the auth collaborator.
type Session struct {
	Identity    string
	DisplayName string
}

// Deps are the collaborators of an Engine. Notifier may be nil, which
// disables the reminder schedule. A zero Schedule selects
// reminder.DefaultSchedule in the ledger's location.
type Deps struct {
	Prefs    *prefs.Store
	Ledger   *ledger.Ledger
	Sync     *syncer.Coordinator
	Clock    clock.Clock
	Schedule reminder.Schedule
	Notifier reminder.Notifier
	Log      logging.Logger
}

// Engine is safe for concurrent use.
type Engine struct {
	prefs    *prefs.Store
	ledger   *ledger.Ledger
	sync     *syncer.Coordinator
	clock    clock.Clock
	schedule reminder.Schedule
	notifier reminder.Notifier
	log      logging.Logger

	// switchMu serializes identity transitions.
	switchMu sync.Mutex

	mu       sync.RWMutex
	identity string
	stop     context.CancelFunc
	tasks    *conc.WaitGroup
}

// New returns an Engine with no active session.
func New(d Deps) *Engine {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Schedule == (reminder.Schedule{}) {
		d.Schedule = reminder.DefaultSchedule
		d.Schedule.Location = nil
	}
	if d.Schedule.Location == nil {
		d.Schedule.Location = d.Ledger.Location()
	}
	return &Engine{
		prefs:    d.Prefs,
		ledger:   d.Ledger,
		sync:     d.Sync,
		clock:    d.Clock,
		schedule: d.Schedule,
		notifier: d.Notifier,
		log:      d.Log.With("module", "engine"),
	}
}

// Identity returns the active identity.
func (e *Engine) Identity() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.identity, e.identity != ""
}

func (e *Engine) current() (string, error) {
	id, ok := e.Identity()
	if !ok {
		return "", common.ErrNoActiveSession
	}
	return id, nil
}

func (e *Engine) today() timex.Date {
	return e.ledger.Today(e.clock.Now())
}

// SetIdentity reacts to a login, a logout (s == nil) or an account switch.
// The previous session's background work is stopped before the namespace
// switches. Pull failures are logged and leave local values in place. Any
// other failure leaves no session active, so the login can be retried.
func (e *Engine) SetIdentity(ctx context.Context, s *Session) error {
	e.switchMu.Lock()
	defer e.switchMu.Unlock()

	var next string
	if s != nil {
		next = strings.TrimSpace(s.Identity)
		if next == "" {
			return fmt.Errorf("%w: empty identity", common.ErrorInvalidInput)
		}
	}
	if prev, _ := e.Identity(); prev == next {
		return nil
	}

	e.endSession()
	if s == nil {
		if err := e.prefs.SwitchNamespace(ctx, nil); err != nil {
			return err
		}
		if err := e.prefs.RememberIdentity(ctx, ""); err != nil {
			e.log.Warn(ctx, "failed to forget last identity", "error", err)
		}
		e.log.Info(ctx, "logged out")
		return nil
	}

	if err := e.prefs.SwitchNamespace(ctx, &next); err != nil {
		return err
	}
	e.mu.Lock()
	e.identity = next
	e.mu.Unlock()

	if err := e.beginSession(ctx, next, s.DisplayName); err != nil {
		e.abortLogin(ctx, next)
		return err
	}

	e.startSession(next)
	e.log.Info(ctx, "logged in", "identity", next)
	return nil
}

func (e *Engine) beginSession(ctx context.Context, next, displayName string) error {
	if err := e.prefs.RememberIdentity(ctx, next); err != nil {
		e.log.Warn(ctx, "failed to remember identity", "error", err)
	}
	if _, err := e.prefs.InitializeUser(ctx, next, displayName); err != nil {
		return fmt.Errorf("failed to initialize user: %w", err)
	}

	e.sync.BeginSession(next)
	// local only: the remote figure may be newer than ours
	if _, err := rollover.Apply(ctx, e.prefs, next, e.today()); err != nil {
		return err
	}
	if err := e.sync.PullOnLogin(ctx, next); err != nil {
		e.log.Warn(ctx, "login continues with local values", "error", err)
	}
	// the pulled date may be older than today
	if err := e.rollover(ctx, next); err != nil {
		return err
	}
	return e.cacheLedgerTotal(ctx, next)
}

// abortLogin undoes a half-done login so the next SetIdentity with the
// same identity starts over.
func (e *Engine) abortLogin(ctx context.Context, identity string) {
	e.endSession()
	if err := e.prefs.SwitchNamespace(ctx, nil); err != nil {
		e.log.Error(ctx, "failed to deactivate namespace", "error", err)
	}
	e.log.Warn(ctx, "login aborted", "identity", identity)
}

// endSession stops background work of the active session. The namespace
// stays active until the caller switches it.
func (e *Engine) endSession() {
	e.mu.Lock()
	stop, tasks := e.stop, e.tasks
	e.stop, e.tasks = nil, nil
	e.identity = ""
	e.mu.Unlock()

	if stop != nil {
		stop()
		tasks.Wait()
	}
	e.sync.EndSession()
}

func (e *Engine) startSession(identity string) {
	ctx, cancel := context.WithCancel(context.Background())
	tasks := &conc.WaitGroup{}
	if e.notifier != nil {
		sched := reminder.NewScheduler(e.schedule, e.clock, func(ctx context.Context) (reminder.Snapshot, error) {
			return e.snapshotOf(ctx, identity)
		}, e.notifier, e.log)
		tasks.Go(func() { sched.Run(ctx) })
	}

	e.mu.Lock()
	e.stop, e.tasks = cancel, tasks
	e.mu.Unlock()
}

// rollover resets the cached consumption when the day changed and pushes
// the reset.
func (e *Engine) rollover(ctx context.Context, identity string) error {
	today := e.today()
	reset, err := rollover.Apply(ctx, e.prefs, identity, today)
	if err != nil {
		return err
	}
	if reset {
		e.log.Info(ctx, "daily consumption reset", "date", today.String())
		e.push(ctx, identity,
			prefs.KeyDailyConsumptionMl.To(0),
			prefs.KeyLastConsumptionDate.To(today),
		)
	}
	return nil
}

// cacheLedgerTotal stores today's ledger total as the cached consumption
// when the ledger holds anything for today. An empty local day keeps the
// pulled figure, which may come from another device.
func (e *Engine) cacheLedgerTotal(ctx context.Context, identity string) error {
	today := e.today()
	total, err := e.ledger.TotalForUserAndDate(ctx, identity, today)
	if err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	return e.storeConsumption(ctx, identity, today, total)
}

func (e *Engine) storeConsumption(ctx context.Context, identity string, today timex.Date, total int) error {
	values := []prefs.Assignment{
		prefs.KeyDailyConsumptionMl.To(max(total, 0)),
		prefs.KeyLastConsumptionDate.To(today),
	}
	if err := e.prefs.SetMany(ctx, prefs.User(identity), values...); err != nil {
		return err
	}
	e.push(ctx, identity, values...)
	return nil
}

func (e *Engine) push(ctx context.Context, identity string, values ...prefs.Assignment) {
	if err := e.sync.Push(identity, values...); err != nil {
		e.log.Warn(ctx, "push not enqueued", "error", err)
	}
}

// RetryPending re-runs a failed login pull and failed pushes. The host
// calls it when connectivity returns.
func (e *Engine) RetryPending(ctx context.Context) error {
	identity, err := e.current()
	if err != nil {
		return err
	}
	retried, err := e.sync.RetryPending(ctx)
	if err != nil || !retried {
		return err
	}
	if err := e.rollover(ctx, identity); err != nil {
		return err
	}
	return e.cacheLedgerTotal(ctx, identity)
}

// SyncPending reports whether the login pull of the active session has not
// succeeded yet, so local values may lag behind the remote record.
func (e *Engine) SyncPending() bool {
	return e.sync.PullPending()
}

// Ping checks whether the remote store is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	return e.sync.Ping(ctx)
}

// Close ends the active session and waits for background work.
func (e *Engine) Close(ctx context.Context) {
	e.switchMu.Lock()
	defer e.switchMu.Unlock()
	e.endSession()
	if err := e.prefs.SwitchNamespace(ctx, nil); err != nil {
		e.log.Error(ctx, "failed to deactivate namespace", "error", err)
	}
	e.sync.Close()
}
