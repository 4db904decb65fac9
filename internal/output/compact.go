package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/date"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// TaskCompact renders a list of tasks in one-line-per-record compact format.
func TaskCompact(w io.Writer, tasks []*task.Task, loc *time.Location) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t, loc))
	}
}

// TaskDetailCompact renders a single task with detail in compact format.
func TaskDetailCompact(w io.Writer, t *task.Task, loc *time.Location) {
	fmt.Fprintln(w, formatTaskLine(t, loc))

	for _, h := range t.History {
		fmt.Fprintln(w, "  "+h.From+"->"+h.To+" "+h.Time)
	}
	if t.Description != "" {
		for _, line := range strings.Split(t.Description, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
}

// BoardCompact renders boards one per line.
func BoardCompact(w io.Writer, boards []board.Info, activeID string) {
	if len(boards) == 0 {
		fmt.Fprintln(os.Stderr, "No boards found.")
		return
	}
	for _, b := range boards {
		line := b.ID + " " + b.Name
		if b.Archived {
			line += " (archived)"
		}
		if b.ID == activeID {
			line += " *"
		}
		fmt.Fprintln(w, line)
	}
}

// OverviewCompact renders a board summary in compact format.
func OverviewCompact(w io.Writer, s board.Overview) {
	fmt.Fprintf(w, "%s (%d tasks)\n", s.BoardName, s.TotalTasks)

	for _, ss := range s.Statuses {
		line := "  " + ss.Status + ": " + strconv.Itoa(ss.Count)
		var annotations []string
		if ss.Pinned > 0 {
			annotations = append(annotations, strconv.Itoa(ss.Pinned)+" pinned")
		}
		if ss.Completed > 0 {
			annotations = append(annotations, strconv.Itoa(ss.Completed)+" completed")
		}
		if ss.Overdue > 0 {
			annotations = append(annotations, strconv.Itoa(ss.Overdue)+" overdue")
		}
		if len(annotations) > 0 {
			line += " (" + strings.Join(annotations, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}

	if s.Subtasks.Total > 0 {
		fmt.Fprintf(w, "Subtasks: %d/%d\n", s.Subtasks.Done, s.Subtasks.Total)
	}
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(t *task.Task, loc *time.Location) string {
	line := ShortID(t.ID) + " [" + t.Status + "] " + t.Title

	if t.Pinned {
		line += " *pinned"
	}
	if t.Completed {
		line += " ✓"
	}
	if d, n := task.CountSubtasks(t.Subtasks); n > 0 {
		line += " (" + strconv.Itoa(d) + "/" + strconv.Itoa(n) + ")"
	}
	if t.Due != nil {
		line += " due:" + date.Short(*t.Due, loc)
	}

	return line
}

// ActivityCompact renders journal entries one per line.
func ActivityCompact(w io.Writer, entries []board.LogEntry, loc *time.Location) {
	for _, e := range entries {
		line := date.Human(e.Timestamp, loc) + " " + e.Action
		if e.TaskID != "" {
			line += " " + ShortID(e.TaskID)
		}
		if e.Detail != "" {
			line += " " + e.Detail
		}
		fmt.Fprintln(w, line)
	}
}
