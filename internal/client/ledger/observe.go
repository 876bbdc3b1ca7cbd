package ledger

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/hydrotrack/internal/timex"
)

// TotalSubscription delivers the live total of one user and day. C holds
// at most one pending value, always the latest.
type TotalSubscription struct {
	C <-chan int

	ch     chan int
	userID string
	date   timex.Date
	mu     sync.Mutex
	closed bool
	ledger *Ledger
}

func (s *TotalSubscription) push(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- total
}

// Close stops delivery and closes C.
func (s *TotalSubscription) Close() {
	l := s.ledger
	l.mu.Lock()
	list := l.watchers[s.userID]
	for i, w := range list {
		if w == s {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(l.watchers, s.userID)
	} else {
		l.watchers[s.userID] = list
	}
	l.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// ObserveTotal emits the current total of userID on date and re-emits it
// after every append, delete or purge for that user.
func (l *Ledger) ObserveTotal(ctx context.Context, userID string, date timex.Date) (*TotalSubscription, error) {
	ch := make(chan int, 1)
	sub := &TotalSubscription{C: ch, ch: ch, userID: userID, date: date, ledger: l}

	l.mu.Lock()
	defer l.mu.Unlock()

	total, err := l.TotalForUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	sub.push(total)
	l.watchers[userID] = append(l.watchers[userID], sub)
	return sub, nil
}

func (l *Ledger) refresh(ctx context.Context, userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cache := map[timex.Date]int{}
	for _, w := range l.watchers[userID] {
		total, ok := cache[w.date]
		if !ok {
			var err error
			total, err = l.TotalForUserAndDate(ctx, userID, w.date)
			if err != nil {
				l.log.Error(ctx, "failed to refresh observed total", "error", err)
				continue
			}
			cache[w.date] = total
		}
		w.push(total)
	}
}
