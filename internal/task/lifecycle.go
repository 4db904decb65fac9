package task

import (
	"time"

	"github.com/twiced-technology-gmbh/protodo/internal/date"
)

// History labels recorded when completion is toggled.
const (
	LabelIncomplete = "incomplete"
	LabelCompleted  = "completed"
)

// NewTransition builds a history entry stamped with now in loc.
func NewTransition(from, to string, now time.Time, loc *time.Location) Transition {
	if loc == nil {
		loc = time.Local
	}
	return Transition{
		From: from,
		To:   to,
		Time: date.Human(now, loc),
		TZ:   loc.String(),
	}
}

// RecordCreated appends the initial created → status entry to history.
func RecordCreated(history []Transition, status string, now time.Time, loc *time.Location) []Transition {
	out := append([]Transition(nil), history...)
	return append(out, NewTransition(StatusCreated, NormalizeStatus(status), now, loc))
}

// ChangeStatus sets t.Status and appends a from → to entry. It is a no-op
// when the status does not change.
func ChangeStatus(t *Task, status string, now time.Time, loc *time.Location) {
	status = NormalizeStatus(status)
	from := NormalizeStatus(t.Status)
	if from == status {
		return
	}
	t.History = append(t.History, NewTransition(from, status, now, loc))
	t.Status = status
}

// ToggleCompleted flips t.Completed and records the change in t.History.
func ToggleCompleted(t *Task, now time.Time, loc *time.Location) {
	from, to := LabelIncomplete, LabelCompleted
	if t.Completed {
		from, to = to, from
	}
	t.Completed = !t.Completed
	t.History = append(t.History, NewTransition(from, to, now, loc))
}
