package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/dmitrijs2005/hydrotrack/internal/auth"
	"github.com/dmitrijs2005/hydrotrack/internal/client/config"
	"github.com/dmitrijs2005/hydrotrack/internal/client/engine"
	"github.com/dmitrijs2005/hydrotrack/internal/client/ledger"
	"github.com/dmitrijs2005/hydrotrack/internal/client/models"
	"github.com/dmitrijs2005/hydrotrack/internal/client/prefs"
	"github.com/dmitrijs2005/hydrotrack/internal/client/reminder"
	"github.com/dmitrijs2005/hydrotrack/internal/client/remote"
	"github.com/dmitrijs2005/hydrotrack/internal/client/storage"
	"github.com/dmitrijs2005/hydrotrack/internal/client/syncer"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	"github.com/dmitrijs2005/hydrotrack/internal/units"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// tracker is the engine surface the CLI drives.
type tracker interface {
	SetIdentity(ctx context.Context, s *engine.Session) error
	Identity() (string, bool)
	LastIdentity(ctx context.Context) (string, error)
	AddWater(ctx context.Context, amountMl int) (int64, error)
	RemoveWater(ctx context.Context, amountMl int) (int64, error)
	DeleteRecord(ctx context.Context, id int64) error
	TodayTotal(ctx context.Context) (int, error)
	History(ctx context.Context) ([]models.HydrationRecord, error)
	Settings(ctx context.Context) (engine.Settings, error)
	SetDailyGoal(ctx context.Context, goalMl int) error
	SetWaterUnit(ctx context.Context, u units.Unit) error
	UpdateProfile(ctx context.Context, p engine.Profile) error
	ToggleDarkMode(ctx context.Context) (bool, error)
	RetryPending(ctx context.Context) error
	SyncPending() bool
	ReminderTick(ctx context.Context) (reminder.Message, bool, error)
	DeleteAccount(ctx context.Context) error
	ResumeDeletion(ctx context.Context, identity string, from engine.DeletionStep) error
	Ping(ctx context.Context) error
	Close(ctx context.Context)
}

type App struct {
	config  *config.Config
	tracker tracker
	log     logging.Logger
	in      *bufio.Scanner
	out     io.Writer
	closers []io.Closer

	mu   sync.Mutex
	mode Mode
	// pendingDeletion is the last account deletion that stopped midway.
	pendingDeletion *engine.DeletionError
}

// NewApp opens the local database and builds the engine with the remote
// backend named by c.RemoteBackend.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	a := &App{config: c, log: log.With("module", "cli"), in: bufio.NewScanner(os.Stdin), out: os.Stdout, mode: ModeOffline}
	a.closers = append(a.closers, db)

	rs, err := a.newRemoteStore(ctx)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	store := prefs.NewStore(db, log)
	coordinator := syncer.New(store, rs, log, syncer.Options{PushTimeout: c.PushTimeout})
	a.tracker = engine.New(engine.Deps{
		Prefs:  store,
		Ledger: ledger.New(db, loc, log),
		Sync:   coordinator,
		Schedule: reminder.Schedule{
			AlignHour: c.ReminderStartHour,
			Interval:  c.ReminderInterval,
			Window:    reminder.Window{Start: c.ReminderStartHour, End: c.ReminderEndHour},
			Location:  loc,
		},
		Notifier: reminder.NotifierFunc(a.notify),
		Log:      log,
	})
	return a, nil
}

func (a *App) newRemoteStore(ctx context.Context) (remote.Store, error) {
	switch a.config.RemoteBackend {
	case config.BackendS3:
		s, err := remote.NewS3Store(ctx, remote.S3Config{
			Region:    a.config.S3.Region,
			Endpoint:  a.config.S3.Endpoint,
			AccessKey: a.config.S3.AccessKey,
			SecretKey: a.config.S3.SecretKey,
			Bucket:    a.config.S3.Bucket,
			Prefix:    a.config.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendNone:
		return remote.NewMemoryStore(), nil
	}
	s, err := remote.NewGRPCStore(a.config.ServerEndpointAddr, a.issueToken)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, s)
	return s, nil
}

// issueToken signs a token for userID with the shared secret. The server
// verifies it with the same secret.
func (a *App) issueToken(_ context.Context, userID string, _ bool) (string, error) {
	return auth.GenerateToken(userID, []byte(a.config.TokenSecret), a.config.TokenValidity)
}

func (a *App) notify(_ context.Context, m reminder.Message) error {
	_, err := fmt.Fprintf(a.out, "\n[%s] %s\n", m.Title, m.Body)
	return err
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// setMode switches the mode and reports whether it changed.
func (a *App) setMode(mode Mode) bool {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), fmt.Sprintf("Switched to %s mode", mode))
	}
	return changed
}

func (a *App) isLoggedIn() bool {
	_, ok := a.tracker.Identity()
	return ok
}

// Run logs back in as the last identity, starts the connectivity watcher
// and blocks in the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	var watcher conc.WaitGroup
	defer func() {
		cancel()
		watcher.Wait()
		a.tracker.Close(context.Background())
		a.closeAll()
	}()

	printlnFn("Welcome to HydroTrack CLI (type 'help' for commands)")
	a.restoreSession(ctx)

	watcher.Go(func() { a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval) })

	runREPL(ctx, a, a.getStatus, a.in)
}

func (a *App) restoreSession(ctx context.Context) {
	last, err := a.tracker.LastIdentity(ctx)
	if err != nil {
		a.log.Warn(ctx, "failed to read last identity", "error", err)
		return
	}
	if last == "" {
		return
	}
	_ = a.Login(ctx, []string{last})
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn(context.Background(), "close failed", "error", err)
		}
	}
	a.closers = nil
}

// StartOnlineStatusWatcher pings the remote store every interval. When
// the store becomes reachable again pending sync work is retried.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.tracker.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	if !a.setMode(ModeOnline) {
		return
	}
	if a.isLoggedIn() {
		if err := a.tracker.RetryPending(ctx); err != nil {
			a.log.Warn(ctx, "retry after reconnect failed", "error", err)
		}
	}
	if a.pendingDeletionErr() != nil {
		if err := a.resumeDeletion(ctx); err != nil {
			a.log.Warn(ctx, "account deletion still incomplete", "error", err)
		} else {
			a.log.Info(ctx, "account deletion completed after reconnect")
		}
	}
}
