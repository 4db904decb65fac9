package board

import (
	"time"

	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// StatusSummary holds metrics for a single column.
type StatusSummary struct {
	Status    string `json:"status"`
	Count     int    `json:"count"`
	Pinned    int    `json:"pinned"`
	Completed int    `json:"completed"`
	Overdue   int    `json:"overdue"`
}

// Overview is the aggregate view of one board.
type Overview struct {
	BoardID    string          `json:"board_id"`
	BoardName  string          `json:"board_name"`
	TotalTasks int             `json:"total_tasks"`
	Subtasks   SubtaskCount    `json:"subtasks"`
	Statuses   []StatusSummary `json:"statuses"`
}

// SubtaskCount totals the subtask trees of a board.
type SubtaskCount struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Summary computes per-column counts for b.
func Summary(b Board, now time.Time) Overview {
	ov := Overview{
		BoardID:   b.ID,
		BoardName: b.Name,
		Statuses:  make([]StatusSummary, 0, len(b.Columns)),
	}
	for _, c := range b.Columns {
		ss := StatusSummary{Status: c.Status, Count: len(c.Tasks)}
		for _, t := range c.Tasks {
			if t.Pinned {
				ss.Pinned++
			}
			if t.Completed {
				ss.Completed++
			}
			if IsOverdue(t, now) {
				ss.Overdue++
			}
			d, n := task.CountSubtasks(t.Subtasks)
			ov.Subtasks.Done += d
			ov.Subtasks.Total += n
		}
		ov.TotalTasks += ss.Count
		ov.Statuses = append(ov.Statuses, ss)
	}
	return ov
}
