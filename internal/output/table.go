package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/date"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boldStyle   = lipgloss.NewStyle().Bold(true)

	// Status colors aligned with TUI column-header palette.
	statusStyles = map[string]lipgloss.Style{
		task.StatusTodo:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		task.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		task.StatusDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	pinStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("44")).Bold(true)

	plainMarkdown bool
)

// DisableColor strips all styling from table output.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	boldStyle = lipgloss.NewStyle()
	statusStyles = map[string]lipgloss.Style{}
	pinStyle = lipgloss.NewStyle()
	overdueStyle = lipgloss.NewStyle()
	activeStyle = lipgloss.NewStyle()
	plainMarkdown = true
}

// ShortID returns the first eight characters of an ID.
func ShortID(id string) string {
	const n = 8
	if len(id) <= n {
		return id
	}
	return id[:n]
}

// TaskTable renders a list of tasks as a formatted table.
func TaskTable(w io.Writer, tasks []*task.Task, loc *time.Location) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	now := time.Now()
	const pad = 2
	idW, statusW, titleW, subW, dueW := 4, 8, 5, 10, 12
	for _, t := range tasks {
		idW = max(idW, len(ShortID(t.ID))+pad)
		statusW = max(statusW, len(t.Status)+pad)
		titleW = max(titleW, min(lipgloss.Width(t.Title)+pad, 50)) //nolint:mnd // max title column width
	}

	header := fmt.Sprintf("%-*s %-*s %-3s %-*s %-*s %-*s",
		idW, "ID", statusW, "STATUS", "", titleW, "TITLE", subW, "SUBTASKS", dueW, "DUE")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))

	for _, t := range tasks {
		title := truncate(t.Title, 48) //nolint:mnd // max title width
		if t.Completed {
			title = dimStyle.Render(title)
		}
		flags := ""
		if t.Pinned {
			flags += pinStyle.Render("*")
		}
		if t.Completed {
			flags += "x"
		}
		subs := dimStyle.Render("--")
		if d, n := task.CountSubtasks(t.Subtasks); n > 0 {
			subs = strconv.Itoa(d) + "/" + strconv.Itoa(n)
		}
		due := dimStyle.Render("--")
		if t.Due != nil {
			due = date.Short(*t.Due, loc)
			if board.IsOverdue(t, now) {
				due = overdueStyle.Render(due)
			}
		}

		row := fmt.Sprintf("%-*s %s %s %s %s %s",
			idW, ShortID(t.ID),
			padRight(styledValue(t.Status, statusStyles), statusW),
			padRight(flags, 3),
			padRight(title, titleW),
			padRight(subs, subW),
			due)
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// BoardTable renders boards, marking the active one.
func BoardTable(w io.Writer, boards []board.Info, activeID string) {
	if len(boards) == 0 {
		fmt.Fprintln(os.Stderr, "No boards found.")
		return
	}
	const pad = 2
	idW, nameW := 4, 6
	for _, b := range boards {
		idW = max(idW, len(b.ID)+pad)
		nameW = max(nameW, min(lipgloss.Width(b.Name)+pad, 40)) //nolint:mnd // max name width
	}
	header := fmt.Sprintf("  %-*s %-*s %s", idW, "ID", nameW, "NAME", "STATE")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, b := range boards {
		marker := "  "
		name := truncate(b.Name, 38) //nolint:mnd // max name width
		if b.ID == activeID {
			marker = activeStyle.Render("*") + " "
			name = activeStyle.Render(name)
		}
		state := "active"
		if b.Archived {
			state = dimStyle.Render("archived")
		}
		fmt.Fprintf(w, "%s%-*s %s %s\n", marker, idW, b.ID, padRight(name, nameW), state)
	}
}

// TaskDetail renders a single task with full detail. The description is
// rendered as markdown.
func TaskDetail(w io.Writer, t *task.Task, loc *time.Location) {
	titleLine := "Task " + ShortID(t.ID) + ": " + t.Title
	fmt.Fprintln(w, boldStyle.Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	printField(w, "ID", t.ID)
	printField(w, "Board", stringOrDash(t.BoardID))
	printField(w, "Status", styledValue(t.Status, statusStyles))
	printField(w, "Pinned", yesNo(t.Pinned))
	printField(w, "Completed", yesNo(t.Completed))
	if t.Due != nil {
		due := date.Human(*t.Due, loc)
		if board.IsOverdue(t, time.Now()) {
			due = overdueStyle.Render(due + " (overdue)")
		}
		printField(w, "Due", due)
	} else {
		printField(w, "Due", dimStyle.Render("--"))
	}
	if d, n := task.CountSubtasks(t.Subtasks); n > 0 {
		printField(w, "Subtasks", strconv.Itoa(d)+"/"+strconv.Itoa(n)+" done")
	}

	if len(t.Subtasks) > 0 {
		fmt.Fprintln(w)
		SubtaskTree(w, t.Subtasks, "  ")
	}

	if strings.TrimSpace(t.Description) != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, RenderMarkdown(t.Description, 80)) //nolint:mnd // wrap width
	}

	if len(t.History) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("HISTORY"))
		for _, h := range t.History {
			tz := ""
			if h.TZ != "" {
				tz = dimStyle.Render(" (" + h.TZ + ")")
			}
			fmt.Fprintf(w, "  %s → %s  %s%s\n",
				styledValue(h.From, statusStyles), styledValue(h.To, statusStyles), h.Time, tz)
		}
	}
}

// SubtaskTree writes nested subtasks as an indented checklist.
func SubtaskTree(w io.Writer, subtasks []task.Subtask, indent string) {
	for _, s := range subtasks {
		box := "[ ]"
		title := s.Title
		if s.Completed {
			box = "[x]"
			title = dimStyle.Render(title)
		}
		fmt.Fprintf(w, "%s%s %s\n", indent, box, title)
		if len(s.Subtasks) > 0 {
			SubtaskTree(w, s.Subtasks, indent+"    ")
		}
	}
}

// RenderMarkdown renders md for the terminal, falling back to the raw text
// when rendering fails.
func RenderMarkdown(md string, width int) string {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if plainMarkdown {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md + "\n"
	}
	out, err := r.Render(md)
	if err != nil {
		return md + "\n"
	}
	return out
}

// OverviewTable renders a board summary as a formatted dashboard.
func OverviewTable(w io.Writer, s board.Overview) {
	fmt.Fprintln(w, boldStyle.Render(s.BoardName))
	fmt.Fprintf(w, "Total: %d tasks", s.TotalTasks)
	if s.Subtasks.Total > 0 {
		fmt.Fprintf(w, ", %d/%d subtasks done", s.Subtasks.Done, s.Subtasks.Total)
	}
	fmt.Fprint(w, "\n\n")

	header := fmt.Sprintf("%-16s %6s %8s %10s %8s", "STATUS", "COUNT", "PINNED", "COMPLETED", "OVERDUE")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, ss := range s.Statuses {
		const statusColW = 16
		fmt.Fprintf(w, "%s %6d %8d %10d %8d\n",
			padRight(styledValue(ss.Status, statusStyles), statusColW),
			ss.Count, ss.Pinned, ss.Completed, ss.Overdue)
	}
}

// StatusTable lists a board's columns and where each comes from.
func StatusTable(w io.Writer, order []string, custom []task.CustomStatus) {
	icons := make(map[string]string, len(custom))
	for _, cs := range custom {
		icons[cs.Name] = cs.Icon
	}
	header := fmt.Sprintf("%-20s %-8s %s", "STATUS", "KIND", "ICON")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, name := range order {
		kind := "base"
		icon, ok := icons[name]
		if ok {
			kind = "custom"
		}
		if icon == "" {
			icon = dimStyle.Render("--")
		}
		fmt.Fprintf(w, "%s %-8s %s\n", padRight(styledValue(name, statusStyles), 20), kind, icon) //nolint:mnd // column width
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func stringOrDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return dimStyle.Render("no")
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}

// ActivityTable renders journal entries oldest first.
func ActivityTable(w io.Writer, entries []board.LogEntry, loc *time.Location) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No activity recorded.")
		return
	}
	header := fmt.Sprintf("%-23s %-12s %-9s %-9s %s", "TIME", "ACTION", "BOARD", "TASK", "DETAIL")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, e := range entries {
		fmt.Fprintf(w, "%-23s %-12s %-9s %-9s %s\n",
			date.Human(e.Timestamp, loc), e.Action,
			stringOrDash(ShortID(e.BoardID)), stringOrDash(ShortID(e.TaskID)),
			dimStyle.Render(e.Detail))
	}
}
