// Package reminder decides when and what to remind a user about their
// daily goal, and runs the periodic schedule that asks for those decisions.
package reminder

import (
	"fmt"

	"github.com/dmitrijs2005/hydrotrack/internal/units"
)

// Title of every reminder.
const Title = "HydroTrack Lembrete"

const bodyFormat = "Faltam %.1f %s para você bater sua meta. Vamos lá!"

// Window is the range of local hours reminders may fire in. Start is
// inclusive, End exclusive.
type Window struct {
	Start int
	End   int
}

// DefaultWindow is 06:00 to 18:00.
var DefaultWindow = Window{Start: 6, End: 18}

// Contains reports whether hour lies in w.
func (w Window) Contains(hour int) bool {
	return hour >= w.Start && hour < w.End
}

// Snapshot is everything Plan needs. The caller reads it from storage.
type Snapshot struct {
	GoalMl     int
	ConsumedMl int
	Unit       units.Unit
	Hour       int
}

// Message is a reminder ready for delivery.
type Message struct {
	Title string
	Body  string
}

// Plan returns the reminder for s, or false when none is due: outside the
// window or with the goal already met.
func Plan(s Snapshot, w Window) (Message, bool) {
	if !w.Contains(s.Hour) {
		return Message{}, false
	}
	remaining := s.GoalMl - s.ConsumedMl
	if remaining <= 0 {
		return Message{}, false
	}
	return Message{
		Title: Title,
		Body:  fmt.Sprintf(bodyFormat, units.ToDisplayUnit(remaining, s.Unit), s.Unit.Label()),
	}, true
}
