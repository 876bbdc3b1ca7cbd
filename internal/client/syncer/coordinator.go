package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/dmitrijs2005/hydrotrack/internal/client/prefs"
	"github.com/dmitrijs2005/hydrotrack/internal/client/remote"
	"github.com/dmitrijs2005/hydrotrack/internal/clock"
	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	pb "github.com/dmitrijs2005/hydrotrack/internal/proto"
)

// Options tune remote calls. Zero values select the defaults.
type Options struct {
	PushTimeout  time.Duration
	PullAttempts uint
	PullDelay    time.Duration
	Clock        clock.Clock
}

const (
	defaultPushTimeout  = 10 * time.Second
	defaultPullAttempts = 3
	defaultPullDelay    = 500 * time.Millisecond
)

type pushOp struct {
	id      uuid.UUID
	value   string
	version int64
}

// pushSlot holds the newest value waiting for a field. failed keeps the
// last op that could not be delivered until something newer replaces it.
type pushSlot struct {
	pending *pushOp
	failed  *pushOp
	running bool
}

type session struct {
	id          uuid.UUID
	identity    string
	ctx         context.Context
	cancel      context.CancelFunc
	slots       map[string]*pushSlot
	pullPending bool
	workers     conc.WaitGroup
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	prefs  *prefs.Store
	remote remote.Store
	log    logging.Logger
	opts   Options

	versions versionClock

	mu      sync.Mutex
	session *session
}

// New returns a Coordinator syncing store with rs.
func New(store *prefs.Store, rs remote.Store, log logging.Logger, opts Options) *Coordinator {
	if opts.PushTimeout <= 0 {
		opts.PushTimeout = defaultPushTimeout
	}
	if opts.PullAttempts == 0 {
		opts.PullAttempts = defaultPullAttempts
	}
	if opts.PullDelay <= 0 {
		opts.PullDelay = defaultPullDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	return &Coordinator{
		prefs:    store,
		remote:   rs,
		log:      log.With("module", "syncer"),
		opts:     opts,
		versions: versionClock{clock: opts.Clock},
	}
}

// BeginSession ends the current session, if any, and starts one for
// identity. It returns the new session id.
func (c *Coordinator) BeginSession(identity string) uuid.UUID {
	c.EndSession()

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:       uuid.New(),
		identity: identity,
		ctx:      ctx,
		cancel:   cancel,
		slots:    make(map[string]*pushSlot),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	c.log.Info(ctx, "sync session started", "session", s.id.String(), "identity", identity)
	return s.id
}

// EndSession cancels in-flight remote calls of the current session, drops
// its queued pushes and waits for its workers to return.
func (c *Coordinator) EndSession() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()

	if s == nil {
		return
	}
	s.cancel()
	s.workers.Wait()
	c.log.Info(context.Background(), "sync session ended", "session", s.id.String())
}

// currentLocked returns the session of identity, common.ErrNoActiveSession
// or common.ErrStaleSession.
func (c *Coordinator) currentLocked(identity string) (*session, error) {
	if c.session == nil {
		return nil, common.ErrNoActiveSession
	}
	if c.session.identity != identity {
		return nil, fmt.Errorf("%w: %s is not the active identity", common.ErrStaleSession, identity)
	}
	return c.session, nil
}

// Push enqueues the record fields among values for delivery to the remote
// store. Non-record keys are ignored. Push never blocks on the network.
func (c *Coordinator) Push(identity string, values ...prefs.Assignment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.currentLocked(identity)
	if err != nil {
		return err
	}
	for _, a := range values {
		if !pb.IsRecordField(a.Key()) {
			continue
		}
		c.enqueueLocked(s, a.Key(), a.Value())
	}
	return nil
}

func (c *Coordinator) enqueueLocked(s *session, field, value string) {
	slot, ok := s.slots[field]
	if !ok {
		slot = &pushSlot{}
		s.slots[field] = slot
	}
	slot.pending = &pushOp{id: uuid.New(), value: value, version: c.versions.next()}
	slot.failed = nil
	if slot.running {
		return
	}
	slot.running = true
	s.workers.Go(func() { c.drain(s, field, slot) })
}

// drain delivers the slot's pending op until the slot is empty or the
// session is over.
func (c *Coordinator) drain(s *session, field string, slot *pushSlot) {
	for {
		c.mu.Lock()
		op := slot.pending
		if op == nil || s.ctx.Err() != nil {
			slot.running = false
			c.mu.Unlock()
			return
		}
		slot.pending = nil
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(s.ctx, c.opts.PushTimeout)
		err := c.remote.SetField(ctx, s.identity, field, op.value, op.version)
		cancel()
		if err == nil {
			c.log.Debug(s.ctx, "pushed field", "op", op.id.String(), "field", field, "version", op.version)
			continue
		}

		if s.ctx.Err() != nil {
			continue
		}
		c.log.Warn(s.ctx, "push failed, local value kept", "op", op.id.String(), "field", field, "error", err)
		c.mu.Lock()
		if slot.pending == nil && errors.Is(err, common.ErrorUnavailable) {
			slot.failed = op
		}
		c.mu.Unlock()
	}
}

// PullOnLogin overwrites local record fields of identity with the remote
// ones. A missing remote record is seeded from local values. On failure
// the pull is marked pending for RetryPending and the error returned.
func (c *Coordinator) PullOnLogin(ctx context.Context, identity string) error {
	c.mu.Lock()
	s, err := c.currentLocked(identity)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	rec, err := retry.DoWithData(
		func() (*remote.UserRecord, error) {
			return c.remote.GetUserRecord(ctx, identity)
		},
		retry.Context(ctx),
		retry.Attempts(c.opts.PullAttempts),
		retry.Delay(c.opts.PullDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, common.ErrorUnavailable) }),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug(ctx, "retrying pull", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		if s.ctx.Err() != nil {
			return common.ErrStaleSession
		}
		c.mu.Lock()
		s.pullPending = true
		c.mu.Unlock()
		c.log.Warn(ctx, "pull failed, keeping local values", "identity", identity, "error", err)
		return fmt.Errorf("failed to pull user record: %w", err)
	}

	return c.apply(ctx, s, rec)
}

// apply writes rec locally and seeds the remote with local values for
// fields it lacks. It runs under c.mu so a session ended meanwhile never
// sees the write.
func (c *Coordinator) apply(ctx context.Context, s *session, rec *remote.UserRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != s {
		c.log.Info(ctx, "discarding pull of ended session", "session", s.id.String())
		return common.ErrStaleSession
	}

	ns := prefs.User(s.identity)
	var assignments []prefs.Assignment
	for _, b := range bindings {
		raw, ok := rec.Get(b.field)
		if !ok {
			local, err := b.read(ctx, c.prefs, ns)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", b.field, err)
			}
			c.enqueueLocked(s, b.field, local)
			continue
		}
		a, err := b.assign(raw)
		if err != nil {
			c.log.Warn(ctx, "ignoring undecodable remote field", "field", b.field, "error", err)
			continue
		}
		assignments = append(assignments, a)
	}

	if err := c.prefs.SetMany(ctx, ns, assignments...); err != nil {
		s.pullPending = true
		return fmt.Errorf("failed to apply user record: %w", err)
	}
	s.pullPending = false
	c.log.Info(ctx, "pulled user record", "identity", s.identity, "fields", len(assignments), "seeded", rec == nil)
	return nil
}

// RetryPending re-runs a failed pull and re-enqueues pushes that failed
// with common.ErrorUnavailable. It reports whether anything was retried.
func (c *Coordinator) RetryPending(ctx context.Context) (bool, error) {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return false, nil
	}
	retried := false
	for field, slot := range s.slots {
		if slot.failed != nil && slot.pending == nil {
			c.enqueueLocked(s, field, slot.failed.value)
			retried = true
		}
	}
	pull := s.pullPending
	identity := s.identity
	c.mu.Unlock()

	if !pull {
		return retried, nil
	}
	return true, c.PullOnLogin(ctx, identity)
}

// PullPending reports whether the current session still waits for a
// successful pull.
func (c *Coordinator) PullPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.pullPending
}

// DeleteRemote removes the remote record of identity. It does not need an
// active session, so a failed cascade can be retried after logout. Callers
// end the session of identity first so no queued push recreates the record.
func (c *Coordinator) DeleteRemote(ctx context.Context, identity string) error {
	if err := c.remote.DeleteUserRecord(ctx, identity); err != nil {
		return fmt.Errorf("failed to delete remote record: %w", err)
	}
	return nil
}

// Ping checks whether the remote store is reachable.
func (c *Coordinator) Ping(ctx context.Context) error {
	return c.remote.Ping(ctx)
}

// Close ends the session.
func (c *Coordinator) Close() {
	c.EndSession()
}

// versionClock hands out strictly increasing versions close to wall-clock
// nanoseconds, so versions keep growing across restarts.
type versionClock struct {
	clock clock.Clock
	mu    sync.Mutex
	last  int64
}

func (v *versionClock) next() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := v.clock.Now().UnixNano()
	if n <= v.last {
		n = v.last + 1
	}
	v.last = n
	return n
}
