// Package task defines the canonical task model shared by the synchronizer,
// the remote client, the reference store and the CLI.
package task

import (
	"strings"
	"time"
)

// Base statuses present on every board.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inprogress"
	StatusDone       = "done"

	// StatusCreated is the pseudo-status recorded as From in a task's first
	// history entry.
	StatusCreated = "created"
)

// BaseStatuses returns the default column order of a new board.
func BaseStatuses() []string {
	return []string{StatusTodo, StatusInProgress, StatusDone}
}

// Task is a unit of work living in exactly one column of one board.
type Task struct {
	ID          string       `yaml:"id,omitempty" json:"id"`
	BoardID     string       `yaml:"board,omitempty" json:"board"`
	Title       string       `yaml:"title" json:"title"`
	Description string       `yaml:"-" json:"description,omitempty"`
	Due         *time.Time   `yaml:"due,omitempty" json:"due,omitempty"`
	Status      string       `yaml:"status" json:"status"`
	Completed   bool         `yaml:"completed,omitempty" json:"completed"`
	Pinned      bool         `yaml:"pinned,omitempty" json:"pinned"`
	Subtasks    []Subtask    `yaml:"subtasks,omitempty" json:"subtasks,omitempty"`
	History     []Transition `yaml:"history,omitempty" json:"history,omitempty"`
}

// Subtask is a nested checklist item. Subtasks may contain subtasks.
type Subtask struct {
	ID        string    `yaml:"id,omitempty" json:"id,omitempty"`
	Title     string    `yaml:"title" json:"title"`
	Completed bool      `yaml:"completed,omitempty" json:"completed"`
	Subtasks  []Subtask `yaml:"subtasks,omitempty" json:"subtasks,omitempty"`
}

// Transition is one entry of a task's status history.
type Transition struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
	Time string `yaml:"time" json:"time"`
	TZ   string `yaml:"tz,omitempty" json:"tz,omitempty"`
}

// CustomStatus is a user-defined column scoped to one board. Custom
// statuses live in local preferences, never in the task store.
type CustomStatus struct {
	Name string `yaml:"name" json:"name"`
	Icon string `yaml:"icon,omitempty" json:"icon,omitempty"`
}

// Draft is the user input for a new task. The store assigns the ID.
type Draft struct {
	Title       string
	Description string
	Due         *time.Time
	Subtasks    []Subtask
	History     []Transition
}

// NormalizeStatus maps a missing status to StatusTodo.
func NormalizeStatus(status string) string {
	if strings.TrimSpace(status) == "" {
		return StatusTodo
	}
	return status
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Due != nil {
		due := *t.Due
		c.Due = &due
	}
	c.Subtasks = CloneSubtasks(t.Subtasks)
	if t.History != nil {
		c.History = append([]Transition(nil), t.History...)
	}
	return &c
}

// CloneSubtasks deep-copies a subtask tree.
func CloneSubtasks(in []Subtask) []Subtask {
	if in == nil {
		return nil
	}
	out := make([]Subtask, len(in))
	for i, st := range in {
		out[i] = st
		out[i].Subtasks = CloneSubtasks(st.Subtasks)
	}
	return out
}

// CountSubtasks returns the number of subtasks in the tree and how many of
// them are completed.
func CountSubtasks(in []Subtask) (done, total int) {
	for _, st := range in {
		total++
		if st.Completed {
			done++
		}
		d, n := CountSubtasks(st.Subtasks)
		done += d
		total += n
	}
	return done, total
}

// IndexByID returns the index of the task with the given ID, or -1.
func IndexByID(tasks []*Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
