// Package clock hides time.Now and timers behind an interface so the
// reminder scheduler and the online watcher can be driven by tests.
package clock

import "time"

// Clock is the subset of the time package used by background loops.
type Clock interface {
	Now() time.Time
	// After behaves like time.After. d <= 0 fires immediately.
	After(d time.Duration) <-chan time.Time
	// NewTicker behaves like time.NewTicker and panics on d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers ticks on C, which has capacity 1. Slow readers miss
// ticks instead of queueing them.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop turns the ticker off. C is not closed.
func (t *Ticker) Stop() { t.stop() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}
