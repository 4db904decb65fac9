// Package board keeps the in-memory view of boards, their columns and the
// ordered tasks inside them consistent with the remote task store.
package board

import (
	"context"

	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// Info is a board as the store reports it, without tasks.
type Info struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// Store is the remote, authoritative task store.
type Store interface {
	// Authenticated reports whether a usable credential is present.
	Authenticated() bool

	ListBoards(ctx context.Context) ([]Info, error)
	CreateBoard(ctx context.Context, name string) (Info, error)
	ArchiveBoard(ctx context.Context, id string) (Info, error)
	RestoreBoard(ctx context.Context, id string) (Info, error)
	DeleteBoard(ctx context.Context, id string) error

	ListTasks(ctx context.Context, boardID string) ([]*task.Task, error)
	CreateTask(ctx context.Context, t *task.Task) (*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task) (*task.Task, error)
	UpdateStatus(ctx context.Context, id, status string) error
	DeleteTask(ctx context.Context, id string) error
	TogglePin(ctx context.Context, id string) (*task.Task, error)
}

// Prefs persists per-user preferences that never reach the store.
type Prefs interface {
	CustomStatuses(boardID string) ([]task.CustomStatus, error)
	SaveCustomStatuses(boardID string, statuses []task.CustomStatus) error
	ActiveBoard() (string, error)
	SetActiveBoard(id string) error
}

// Position addresses a slot in a column.
type Position struct {
	Column string `json:"column"`
	Index  int    `json:"index"`
}

// Column is one status column of a board snapshot.
type Column struct {
	Status string       `json:"status"`
	Tasks  []*task.Task `json:"tasks"`
}

// Board is a point-in-time copy of a board. Callers may modify it freely.
type Board struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Archived bool     `json:"archived"`
	Loaded   bool     `json:"loaded"`
	Columns  []Column `json:"columns"`
}

// State is a point-in-time copy of everything the synchronizer holds.
type State struct {
	ActiveID string  `json:"active_board,omitempty"`
	Active   []Board `json:"boards"`
	Archived []Board `json:"archived_boards"`
}

// Column returns the column with the given status.
func (b Board) Column(status string) (Column, bool) {
	for _, c := range b.Columns {
		if c.Status == status {
			return c, true
		}
	}
	return Column{}, false
}

// Statuses returns the column keys in display order.
func (b Board) Statuses() []string {
	out := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		out[i] = c.Status
	}
	return out
}

// Tasks returns every task of the board in column order.
func (b Board) Tasks() []*task.Task {
	var out []*task.Task
	for _, c := range b.Columns {
		out = append(out, c.Tasks...)
	}
	return out
}

// Locate returns the position of the task with the given ID.
func (b Board) Locate(taskID string) (Position, bool) {
	for _, c := range b.Columns {
		if i := task.IndexByID(c.Tasks, taskID); i >= 0 {
			return Position{Column: c.Status, Index: i}, true
		}
	}
	return Position{}, false
}

// Board returns the board with the given ID from either set.
func (s State) Board(id string) (Board, bool) {
	for _, b := range s.Active {
		if b.ID == id {
			return b, true
		}
	}
	for _, b := range s.Archived {
		if b.ID == id {
			return b, true
		}
	}
	return Board{}, false
}

// Current returns the active board.
func (s State) Current() (Board, bool) {
	if s.ActiveID == "" {
		return Board{}, false
	}
	return s.Board(s.ActiveID)
}
