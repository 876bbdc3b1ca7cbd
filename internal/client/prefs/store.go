package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/hydrotrack/internal/client/repositories/preferences"
	"github.com/dmitrijs2005/hydrotrack/internal/dbx"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
)

type slot struct {
	ns  string
	key string
}

// Store is the process-wide preference store.
type Store struct {
	db      *sql.DB
	newRepo func(dbx.DBTX) preferences.Repository
	log     logging.Logger

	locksMu sync.Mutex
	locks   map[slot]*sync.Mutex

	// mu guards active and the subscriber maps. Writers notify under
	// RLock, SwitchNamespace re-emits under Lock.
	mu        sync.RWMutex
	active    *Namespace
	direct    map[slot][]sink
	followers map[string][]sink
}

// NewStore returns a Store persisting into db.
func NewStore(db *sql.DB, log logging.Logger) *Store {
	return &Store{
		db:        db,
		newRepo:   func(tx dbx.DBTX) preferences.Repository { return preferences.NewSQLiteRepository(tx) },
		log:       log.With("module", "prefs"),
		locks:     make(map[slot]*sync.Mutex),
		direct:    make(map[slot][]sink),
		followers: make(map[string][]sink),
	}
}

func resolve(ns Namespace, global bool) Namespace {
	if global {
		return Global
	}
	return ns
}

func (s *Store) keyLock(sl slot) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[sl]
	if !ok {
		m = &sync.Mutex{}
		s.locks[sl] = m
	}
	return m
}

// lockAll takes the key locks of slots in a fixed order and returns the
// matching unlock.
func (s *Store) lockAll(slots []slot) func() {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].ns != slots[j].ns {
			return slots[i].ns < slots[j].ns
		}
		return slots[i].key < slots[j].key
	})
	held := make([]*sync.Mutex, 0, len(slots))
	for i, sl := range slots {
		if i > 0 && sl == slots[i-1] {
			continue
		}
		m := s.keyLock(sl)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (s *Store) load(ctx context.Context, ns Namespace, key string) (string, bool, error) {
	return s.newRepo(s.db).Get(ctx, ns.storageKey(), key)
}

// Get returns the value of k in ns, or k's default when nothing is stored.
// A stored value that cannot be decoded also yields the default.
func Get[T any](ctx context.Context, s *Store, ns Namespace, k Key[T]) (T, error) {
	ns = resolve(ns, k.global)
	raw, ok, err := s.load(ctx, ns, k.name)
	if err != nil {
		return k.def, err
	}
	v, err := k.parse(raw, ok)
	if err != nil {
		s.log.Warn(ctx, "undecodable preference, using default", "namespace", ns.String(), "key", k.name, "error", err)
		return k.def, nil
	}
	return v, nil
}

// Set upserts k in ns and notifies observers.
func Set[T any](ctx context.Context, s *Store, ns Namespace, k Key[T], v T) error {
	return s.SetMany(ctx, ns, k.To(v))
}

// Modify applies fn to the current value of k under the key lock and
// stores the result, so concurrent Modify calls never lose updates.
func Modify[T any](ctx context.Context, s *Store, ns Namespace, k Key[T], fn func(T) T) (T, error) {
	ns = resolve(ns, k.global)
	sl := slot{ns: ns.storageKey(), key: k.name}
	unlock := s.lockAll([]slot{sl})
	defer unlock()

	cur, err := Get(ctx, s, ns, k)
	if err != nil {
		return cur, err
	}
	next := fn(cur)
	if err := s.commit(ctx, ns, []Assignment{k.To(next)}); err != nil {
		return cur, err
	}
	return next, nil
}

// SetMany writes all assignments in one transaction: either every value is
// stored or none is. Global keys go to the Global namespace regardless of
// ns.
func (s *Store) SetMany(ctx context.Context, ns Namespace, values ...Assignment) error {
	if len(values) == 0 {
		return nil
	}
	slots := make([]slot, 0, len(values))
	for _, a := range values {
		slots = append(slots, slot{ns: resolve(ns, a.global).storageKey(), key: a.key})
	}
	unlock := s.lockAll(slots)
	defer unlock()

	return s.commit(ctx, ns, values)
}

// commit must run with the key locks held.
func (s *Store) commit(ctx context.Context, ns Namespace, values []Assignment) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.newRepo(tx)
		for _, a := range values {
			if err := repo.Set(ctx, resolve(ns, a.global).storageKey(), a.key, a.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store preferences: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range values {
		s.notifyLocked(resolve(ns, a.global), a.key, a.value, true)
	}
	return nil
}

// DeleteNamespace removes every key of identity. Observers of that
// namespace fall back to defaults.
func (s *Store) DeleteNamespace(ctx context.Context, identity string) error {
	ns := User(identity)
	if ns.IsGlobal() {
		return fmt.Errorf("refusing to delete the global namespace")
	}
	if _, err := s.newRepo(s.db).DeleteNamespace(ctx, ns.storageKey()); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := map[string]struct{}{}
	for sl := range s.direct {
		if sl.ns == ns.storageKey() {
			keys[sl.key] = struct{}{}
		}
	}
	if s.active != nil && *s.active == ns {
		for key := range s.followers {
			keys[key] = struct{}{}
		}
	}
	for key := range keys {
		s.notifyLocked(ns, key, "", false)
	}
	return nil
}

// Active returns the active identity, if a session is active.
func (s *Store) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return "", false
	}
	return s.active.identity, true
}

// SwitchNamespace activates the namespace of *to, or ends the active
// session when to is nil. Every ObserveActive subscriber receives the value of
// the new namespace before SwitchNamespace returns.
func (s *Store) SwitchNamespace(ctx context.Context, to *string) error {
	var next *Namespace
	if to != nil {
		id := strings.TrimSpace(*to)
		if id == "" {
			return fmt.Errorf("empty identity")
		}
		ns := User(id)
		next = &ns
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = next
	identity := ""
	if next != nil {
		identity = next.identity
	}
	for key, subs := range s.followers {
		var raw string
		var ok bool
		if next != nil {
			var err error
			raw, ok, err = s.load(ctx, *next, key)
			if err != nil {
				s.log.Error(ctx, "failed to load preference on namespace switch", "key", key, "error", err)
				ok = false
			}
		}
		for _, sub := range subs {
			sub.push(identity, raw, ok)
		}
	}
	return nil
}

// notifyLocked must run with s.mu held (read or write).
func (s *Store) notifyLocked(ns Namespace, key, raw string, present bool) {
	for _, sub := range s.direct[slot{ns: ns.storageKey(), key: key}] {
		sub.push(ns.identity, raw, present)
	}
	if s.active != nil && *s.active == ns {
		for _, sub := range s.followers[key] {
			sub.push(ns.identity, raw, present)
		}
	}
}
