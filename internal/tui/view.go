package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/date"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// --- Styles ---

var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	activeColumnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeCardStyle = cardStyle.BorderForeground(lipgloss.Color("226"))

	pinnedCardStyle = cardStyle.BorderForeground(lipgloss.Color("178"))

	overdueCardStyle = cardStyle.BorderForeground(lipgloss.Color("196"))

	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	doneTitleStyle = dimStyle.Strikethrough(true)
	pinStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	checkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))

	dialogPadY = 1
	dialogPadX = 2

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(dialogPadY, dialogPadX)
)

// --- View rendering ---

func (b *Board) viewBoard() string {
	if b.boardID == "" {
		return "No boards. Create one with 'protodo board add NAME'.\n\n" + b.renderStatusBar()
	}
	if !b.loaded {
		return b.renderTabs() + "\nLoading tasks..."
	}
	if len(b.columns) == 0 {
		return "No statuses configured."
	}

	colWidth := b.columnWidth()

	renderedCols := make([]string, len(b.columns))
	for i, col := range b.columns {
		renderedCols[i] = b.renderColumn(i, col, colWidth)
	}

	boardView := lipgloss.JoinHorizontal(lipgloss.Top, renderedCols...)

	// Ensure the board view fits within the available height. At very small
	// terminal sizes, a single card can exceed the budget. Clamp from the
	// bottom (keeping headers at the top) and pad if needed.
	targetHeight := b.height - b.chromeHeight()
	if targetHeight > 0 {
		actual := strings.Count(boardView, "\n") + 1
		if actual > targetHeight {
			viewLines := strings.SplitN(boardView, "\n", targetHeight+1)
			boardView = strings.Join(viewLines[:targetHeight], "\n")
		} else if actual < targetHeight {
			boardView += strings.Repeat("\n", targetHeight-actual)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, b.renderTabs(), boardView, "", b.renderStatusBar())
}

func (b *Board) renderTabs() string {
	tabs := make([]string, 0, len(b.boards))
	for _, info := range b.boards {
		if info.ID == b.boardID {
			tabs = append(tabs, activeTabStyle.Render(info.Name))
		} else {
			tabs = append(tabs, tabStyle.Render(info.Name))
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return lipgloss.NewStyle().MaxWidth(b.width).Render(line)
}

func (b *Board) renderColumn(colIdx int, col column, width int) string {
	headerText := fmt.Sprintf("%s (%d)", col.status, len(col.tasks))
	if icon := b.icons[col.status]; icon != "" {
		headerText = icon + " " + headerText
	}
	// Truncate to fit within padding (1 left + 1 right).
	const headerPad = 2
	headerText = truncate(headerText, width-headerPad)

	var header string
	if colIdx == b.activeCol {
		header = activeColumnHeaderStyle.Width(width).Render(headerText)
	} else {
		header = columnHeaderStyle.Width(width).Render(headerText)
	}

	maxVis := b.visibleCardsForColumn(&col, width)
	start := min(col.scrollOff, len(col.tasks))
	end := min(start+maxVis, len(col.tasks))

	parts := []string{header}

	if start > 0 {
		indicator := fmt.Sprintf("  ↑ %d more", start)
		parts = append(parts, dimStyle.Width(width).Render(truncate(indicator, width)))
	}

	if len(col.tasks) == 0 {
		parts = append(parts, dimStyle.Width(width).Render("  (empty)"))
	} else {
		for rowIdx := start; rowIdx < end; rowIdx++ {
			active := colIdx == b.activeCol && rowIdx == b.activeRow
			parts = append(parts, b.renderCard(col.tasks[rowIdx], active, width))
		}
	}

	if end < len(col.tasks) {
		indicator := fmt.Sprintf("  ↓ %d more", len(col.tasks)-end)
		parts = append(parts, dimStyle.Width(width).Render(truncate(indicator, width)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *Board) renderCard(t *task.Task, active bool, width int) string {
	content := strings.Join(b.cardContentLines(t, width), "\n")

	style := cardStyle
	switch {
	case active:
		style = activeCardStyle
	case board.IsOverdue(t, b.now()):
		style = overdueCardStyle
	case t.Pinned:
		style = pinnedCardStyle
	}

	return style.Width(width - 2).Render(content) //nolint:mnd // border width
}

func (b *Board) cardHeight(t *task.Task, width int) int {
	return len(b.cardContentLines(t, width)) + 2 //nolint:mnd // top and bottom borders
}

// cardContentLines returns the wrapped title, a meta line (pin, subtasks,
// due date) when there is anything to show, and the first description line.
func (b *Board) cardContentLines(t *task.Task, width int) []string {
	const cardChrome = 4 // border (2) + padding (2)
	cardWidth := max(width-cardChrome, 1)

	style := titleStyle
	if t.Completed {
		style = doneTitleStyle
	}
	var lines []string
	for _, line := range wrapTitle(t.Title, cardWidth, b.cfg.TitleLines()) {
		lines = append(lines, style.Render(line))
	}

	var meta []string
	if t.Pinned {
		meta = append(meta, pinStyle.Render("*"))
	}
	if t.Completed {
		meta = append(meta, checkStyle.Render("✓"))
	}
	if d, n := task.CountSubtasks(t.Subtasks); n > 0 {
		meta = append(meta, dimStyle.Render(strconv.Itoa(d)+"/"+strconv.Itoa(n)))
	}
	if t.Due != nil {
		due := date.Short(*t.Due, b.cfg.Location())
		if board.IsOverdue(t, b.now()) {
			meta = append(meta, overdueStyle.Render("due "+due))
		} else {
			meta = append(meta, dimStyle.Render("due "+due))
		}
	}
	if len(meta) > 0 {
		lines = append(lines, strings.Join(meta, " "))
	}

	if desc := strings.TrimSpace(t.Description); desc != "" {
		first, _, _ := strings.Cut(desc, "\n")
		lines = append(lines, dimStyle.Render(truncate(first, cardWidth)))
	}

	return lines
}

// wrapTitle splits a title across maxLines lines, word-wrapping at word
// boundaries. Each line is at most maxWidth characters.
func wrapTitle(title string, maxWidth, maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}
	if lipgloss.Width(title) <= maxWidth || maxLines == 1 {
		return []string{truncate(title, maxWidth)}
	}

	words := strings.Fields(title)
	lines := make([]string, 0, maxLines)
	var current strings.Builder

	for i, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if lipgloss.Width(current.String())+1+lipgloss.Width(word) <= maxWidth {
			current.WriteByte(' ')
			current.WriteString(word)
		} else {
			lines = append(lines, truncate(current.String(), maxWidth))
			current.Reset()
			current.WriteString(word)
			if len(lines) == maxLines-1 {
				// Last line: append all remaining words.
				for _, w := range words[i+1:] {
					current.WriteByte(' ')
					current.WriteString(w)
				}
				break
			}
		}
	}
	if current.Len() > 0 {
		lines = append(lines, truncate(current.String(), maxWidth))
	}
	return lines
}

func (b *Board) renderStatusBar() string {
	name := b.boardName
	if name == "" {
		name = "-"
	}
	status := fmt.Sprintf(" %s | %d tasks | ", name, b.total)
	bar := statusBarStyle.Render(status) + b.help.ShortHelpView(keys.ShortHelp())
	bar = lipgloss.NewStyle().MaxWidth(max(b.width, 1)).Render(bar)

	if b.toast != "" {
		errStr := errorStyle.Render(truncate(b.toast, b.width))
		return errStr + "\n" + bar
	}

	return bar
}

func (b *Board) viewDeleteConfirm() string {
	content := errorStyle.Render("Delete task?") + "\n\n" +
		"  " + b.deleteTitle + "\n\n" +
		dimStyle.Render("y:yes  n:no")

	return dialogStyle.Render(content)
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 { //nolint:mnd // minimum length for truncation
		maxLen = 4
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	// Slice by runes to avoid breaking multi-byte UTF-8 characters.
	runes := []rune(s)
	target := min(maxLen-3, len(runes)) //nolint:mnd // room for "..."
	// Trim runes from the end until the display width fits.
	for target > 0 && lipgloss.Width(string(runes[:target])) > maxLen-3 {
		target--
	}
	return string(runes[:target]) + "..."
}
