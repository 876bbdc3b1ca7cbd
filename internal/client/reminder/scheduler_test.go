package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/hydrotrack/internal/clock"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	"github.com/dmitrijs2005/hydrotrack/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextAlignment(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before", time.Date(2024, 1, 2, 5, 30, 0, 0, loc), time.Date(2024, 1, 2, 6, 0, 0, 0, loc)},
		{"exactly", time.Date(2024, 1, 2, 6, 0, 0, 0, loc), time.Date(2024, 1, 2, 6, 0, 0, 0, loc)},
		{"after", time.Date(2024, 1, 2, 6, 0, 1, 0, loc), time.Date(2024, 1, 3, 6, 0, 0, 0, loc)},
		{"month end", time.Date(2024, 1, 31, 22, 0, 0, 0, loc), time.Date(2024, 2, 1, 6, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextAlignment(tt.now, 6))
		})
	}
}

type recorder struct {
	messages chan Message
}

func (r *recorder) Notify(ctx context.Context, m Message) error {
	r.messages <- m
	return nil
}

func expectMessage(t *testing.T, r *recorder) Message {
	t.Helper()
	select {
	case m := <-r.messages:
		return m
	case <-time.After(time.Second):
		t.Fatal("no reminder delivered")
	}
	return Message{}
}

func TestScheduler_AlignsThenRepeats(t *testing.T) {
	start := time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)
	fake := clock.Fake(start)
	rec := &recorder{messages: make(chan Message, 8)}
	snapshots := make(chan int, 16)
	snapshot := func(ctx context.Context) (Snapshot, error) {
		snapshots <- 1
		return Snapshot{GoalMl: 2000, ConsumedMl: 550, Unit: units.ML}, nil
	}
	schedule := Schedule{AlignHour: 6, Interval: 3 * time.Hour, Window: DefaultWindow, Location: time.UTC}
	s := NewScheduler(schedule, fake, snapshot, rec, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	fake.WaitForWaiters(1)
	fake.Advance(time.Hour)
	m := expectMessage(t, rec)
	assert.Equal(t, "Faltam 1450.0 ml para você bater sua meta. Vamos lá!", m.Body)

	for _, hour := range []int{9, 12, 15} {
		fake.WaitForWaiters(1)
		fake.Advance(3 * time.Hour)
		expectMessage(t, rec)
		assert.Equal(t, hour, fake.Now().Hour())
	}

	fake.Advance(3 * time.Hour)
	require.Eventually(t, func() bool { return len(snapshots) == 5 }, time.Second, 5*time.Millisecond)
	select {
	case m := <-rec.messages:
		t.Fatalf("reminder outside window: %+v", m)
	default:
	}

	cancel()
	<-done
}

func TestScheduler_FireSkipsOnErrors(t *testing.T) {
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	schedule := Schedule{Window: DefaultWindow, Location: time.UTC}

	failing := func(ctx context.Context) (Snapshot, error) { return Snapshot{}, errors.New("db closed") }
	s := NewScheduler(schedule, clock.Fake(at), failing, NotifierFunc(func(context.Context, Message) error {
		t.Fatal("notifier must not be called")
		return nil
	}), logging.Discard())
	assert.False(t, s.Fire(context.Background(), at))

	ok := func(ctx context.Context) (Snapshot, error) { return Snapshot{GoalMl: 2000}, nil }
	s = NewScheduler(schedule, clock.Fake(at), ok, NotifierFunc(func(context.Context, Message) error {
		return errors.New("no channel")
	}), logging.Discard())
	assert.False(t, s.Fire(context.Background(), at))
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	fake := clock.Fake(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))
	s := NewScheduler(DefaultSchedule, fake, func(ctx context.Context) (Snapshot, error) {
		return Snapshot{}, nil
	}, NotifierFunc(func(context.Context, Message) error { return nil }), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	fake.WaitForWaiters(1)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
