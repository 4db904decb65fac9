package board

import (
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// FilterOptions defines which tasks to include.
type FilterOptions struct {
	Statuses  []string
	Search    string // case-insensitive substring match across title, description and subtasks
	Pinned    *bool
	Completed *bool
	Overdue   bool
	Now       time.Time
}

// Filter returns tasks matching all specified criteria (AND logic).
func Filter(tasks []*task.Task, opts FilterOptions) []*task.Task {
	var result []*task.Task
	for _, t := range tasks {
		if matchesFilter(t, opts) {
			result = append(result, t)
		}
	}
	return result
}

func matchesFilter(t *task.Task, opts FilterOptions) bool {
	if len(opts.Statuses) > 0 && !containsStr(opts.Statuses, t.Status) {
		return false
	}
	if opts.Pinned != nil && t.Pinned != *opts.Pinned {
		return false
	}
	if opts.Completed != nil && t.Completed != *opts.Completed {
		return false
	}
	if opts.Overdue && !IsOverdue(t, opts.Now) {
		return false
	}
	if opts.Search != "" && !matchesSearch(t, opts.Search) {
		return false
	}
	return true
}

// IsOverdue reports whether an open task's due date has passed.
func IsOverdue(t *task.Task, now time.Time) bool {
	return t.Due != nil && !t.Completed && t.Due.Before(now)
}

func matchesSearch(t *task.Task, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	return subtasksContain(t.Subtasks, q)
}

func subtasksContain(subs []task.Subtask, q string) bool {
	for _, st := range subs {
		if strings.Contains(strings.ToLower(st.Title), q) || subtasksContain(st.Subtasks, q) {
			return true
		}
	}
	return false
}

func containsStr(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
