package board

import (
	"sort"
	"strings"

	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// Sort fields accepted by Sort.
const (
	SortPosition = "position"
	SortTitle    = "title"
	SortDue      = "due"
	SortStatus   = "status"
)

// SortPinned orders tasks pinned-first, keeping relative order within the
// pinned and unpinned groups. It is idempotent.
func SortPinned(tasks []*task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Pinned && !tasks[j].Pinned
	})
}

// IsPinnedSorted reports whether no unpinned task precedes a pinned one.
func IsPinnedSorted(tasks []*task.Task) bool {
	seenUnpinned := false
	for _, t := range tasks {
		if !t.Pinned {
			seenUnpinned = true
		} else if seenUnpinned {
			return false
		}
	}
	return true
}

// Sort sorts a flat task list by field for listings. Status order follows
// statuses; "position" leaves the input order alone.
func Sort(tasks []*task.Task, field string, reverse bool, statuses []string) {
	if field == "" || field == SortPosition {
		if reverse {
			for i, j := 0, len(tasks)-1; i < j; i, j = i+1, j-1 {
				tasks[i], tasks[j] = tasks[j], tasks[i]
			}
		}
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		less := compareTasks(tasks[i], tasks[j], field, statuses)
		if reverse {
			return compareTasks(tasks[j], tasks[i], field, statuses)
		}
		return less
	})
}

// ValidSortFields returns the accepted --sort values.
func ValidSortFields() []string {
	return []string{SortPosition, SortTitle, SortDue, SortStatus}
}

func compareTasks(a, b *task.Task, field string, statuses []string) bool {
	switch field {
	case SortTitle:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	case SortDue:
		return compareDue(a, b)
	case SortStatus:
		return statusIndex(statuses, a.Status) < statusIndex(statuses, b.Status)
	default:
		return false
	}
}

func compareDue(a, b *task.Task) bool {
	if a.Due == nil && b.Due == nil {
		return false
	}
	if a.Due == nil {
		return false // nil sorts last
	}
	if b.Due == nil {
		return true
	}
	return a.Due.Before(*b.Due)
}

func statusIndex(statuses []string, s string) int {
	for i, st := range statuses {
		if st == s {
			return i
		}
	}
	return len(statuses)
}
