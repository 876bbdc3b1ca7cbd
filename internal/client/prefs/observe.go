package prefs

import (
	"context"
	"sync"
)

// Update is one observed value. Identity is the namespace the value was
// read from; "" means Global or no active session.
type Update[T any] struct {
	Identity string
	Value    T
}

type sink interface {
	push(identity, raw string, present bool)
}

// Subscription delivers the latest value of one key. C holds at most one
// pending Update; a slow reader only ever sees the newest one.
type Subscription[T any] struct {
	C <-chan Update[T]

	ch     chan Update[T]
	key    Key[T]
	mu     sync.Mutex
	closed bool
	cancel func()
}

func (sub *Subscription[T]) push(identity, raw string, present bool) {
	v, err := sub.key.parse(raw, present)
	if err != nil {
		v = sub.key.def
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- Update[T]{Identity: identity, Value: v}
}

// Close stops delivery and closes C. Safe to call more than once.
func (sub *Subscription[T]) Close() {
	sub.cancel()
}

func newSubscription[T any](k Key[T]) *Subscription[T] {
	ch := make(chan Update[T], 1)
	return &Subscription[T]{C: ch, ch: ch, key: k}
}

func (sub *Subscription[T]) closeLocked() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

func removeSink(list []sink, target sink) []sink {
	out := list[:0]
	for _, s := range list {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

// Observe subscribes to k in a fixed namespace.
func Observe[T any](ctx context.Context, s *Store, ns Namespace, k Key[T]) *Subscription[T] {
	ns = resolve(ns, k.global)
	sl := slot{ns: ns.storageKey(), key: k.name}
	sub := newSubscription(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.direct[sl] = append(s.direct[sl], sub)
	sub.cancel = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.direct[sl] = removeSink(s.direct[sl], sub)
		if len(s.direct[sl]) == 0 {
			delete(s.direct, sl)
		}
		sub.closeLocked()
	}

	raw, ok, err := s.load(ctx, ns, k.name)
	if err != nil {
		s.log.Error(ctx, "failed to load observed preference", "key", k.name, "error", err)
		ok = false
	}
	sub.push(ns.identity, raw, ok)
	return sub
}

// ObserveActive subscribes to k in whatever namespace is active. With no
// active identity the default is delivered and nothing else until a
// namespace becomes active. Global keys behave like Observe(Global).
func ObserveActive[T any](ctx context.Context, s *Store, k Key[T]) *Subscription[T] {
	if k.global {
		return Observe(ctx, s, Global, k)
	}
	sub := newSubscription(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.followers[k.name] = append(s.followers[k.name], sub)
	sub.cancel = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.followers[k.name] = removeSink(s.followers[k.name], sub)
		if len(s.followers[k.name]) == 0 {
			delete(s.followers, k.name)
		}
		sub.closeLocked()
	}

	if s.active == nil {
		sub.push("", "", false)
		return sub
	}
	raw, ok, err := s.load(ctx, *s.active, k.name)
	if err != nil {
		s.log.Error(ctx, "failed to load observed preference", "key", k.name, "error", err)
		ok = false
	}
	sub.push(s.active.identity, raw, ok)
	return sub
}
