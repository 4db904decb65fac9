// Package tui implements a terminal UI for protodo boards.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/config"
	"github.com/twiced-technology-gmbh/protodo/internal/remote"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// view represents the current screen state.
type view int

const (
	viewBoard view = iota
	viewConfirmDelete
)

// Key and layout constants.
const (
	keyEsc = "esc"

	tabsChrome    = 1                // board tabs above the columns
	boardChrome   = 2                // blank line + status bar below the column area
	errorChrome   = 1                // extra line when a toast is displayed
	tickInterval  = 30 * time.Second // how often overdue highlighting refreshes
	toastDuration = 5 * time.Second
)

// Options wires the model to asynchronous sources.
type Options struct {
	// Events must be the sink the synchronizer publishes to.
	Events *EventSink
	// Changes delivers store pushes; nil disables live updates.
	Changes <-chan remote.Notification
}

// Board is the top-level bubbletea model.
type Board struct {
	ctx     context.Context
	sync    *board.Synchronizer
	cfg     *config.Config
	events  *EventSink
	changes <-chan remote.Notification
	help    help.Model
	now     func() time.Time

	boardID   string
	boardName string
	loaded    bool
	boards    []board.Info
	icons     map[string]string
	columns   []column
	total     int

	activeCol int
	activeRow int
	view      view
	width     int
	height    int

	toast    string
	toastSeq int

	// Delete confirmation.
	deleteID    string
	deleteTitle string

	// Mouse drag in progress.
	drag *dragState
}

// column is one status column of the active board.
type column struct {
	status    string
	tasks     []*task.Task
	scrollOff int // first visible row index
}

type dragState struct {
	taskID string
	from   board.Position
}

// NewBoard creates a Board model over a synchronizer. Store calls made on
// behalf of key presses use ctx.
func NewBoard(ctx context.Context, s *board.Synchronizer, cfg *config.Config, opts Options) *Board {
	b := &Board{
		ctx:     ctx,
		sync:    s,
		cfg:     cfg,
		events:  opts.Events,
		changes: opts.Changes,
		help:    help.New(),
		now:     time.Now,
	}
	b.refresh()
	return b
}

// SetNow overrides the clock used for overdue highlighting (for testing).
func (b *Board) SetNow(fn func() time.Time) {
	b.now = fn
}

// WatchPaths returns the files whose changes should send ReloadMsg.
func (b *Board) WatchPaths() []string {
	return []string{b.cfg.PrefsPath()}
}

// Init implements tea.Model.
func (b *Board) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), b.loadCmd(true), listenChanges(b.changes)}
	if b.events != nil {
		cmds = append(cmds, b.events.next())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.MouseMsg:
		return b.handleMouse(msg)
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.help.Width = msg.Width
		b.clampRow()
		return b, nil
	case ReloadMsg:
		return b, b.loadCmd(false)
	case TickMsg:
		return b, tickCmd()
	case eventMsg:
		return b.handleEvent(board.Event(msg))
	case changeMsg:
		return b.handleChange(msg)
	case opDoneMsg:
		b.refresh()
		if msg.focus != "" {
			b.focus(msg.focus)
		}
		return b, nil
	case clearToastMsg:
		if msg.seq == b.toastSeq {
			b.toast = ""
		}
		return b, nil
	}
	return b, nil
}

// View implements tea.Model.
func (b *Board) View() string {
	if b.width == 0 {
		return "Loading..."
	}

	switch b.view {
	case viewConfirmDelete:
		return b.viewDeleteConfirm()
	default:
		return b.viewBoard()
	}
}

func (b *Board) handleEvent(e board.Event) (tea.Model, tea.Cmd) {
	b.refresh()
	var cmds []tea.Cmd
	if b.events != nil {
		cmds = append(cmds, b.events.next())
	}
	if e.Failed() && e.Message != "" {
		cmds = append(cmds, b.setToast(e.Message))
	}
	return b, tea.Batch(cmds...)
}

func (b *Board) handleChange(msg changeMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		b.changes = nil
		return b, nil
	}
	next := listenChanges(b.changes)
	switch msg.note.Type {
	case "board_created", "board_archived", "board_restored", "board_deleted":
		return b, tea.Batch(next, b.loadCmd(true))
	}
	if msg.note.BoardID != "" && msg.note.BoardID != b.boardID {
		return b, next
	}
	return b, tea.Batch(next, b.loadCmd(false))
}

func (b *Board) setToast(message string) tea.Cmd {
	b.toastSeq++
	b.toast = message
	return clearToastAfter(b.toastSeq)
}

func (b *Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys.
	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
		return b, tea.Quit
	}

	switch b.view {
	case viewBoard:
		return b.handleBoardKey(msg)
	case viewConfirmDelete:
		return b.handleDeleteKey(msg)
	}

	return b, nil
}

func (b *Board) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return b, tea.Quit
	case key.Matches(msg, keys.Left):
		if b.activeCol > 0 {
			b.activeCol--
			b.clampRow()
		}
	case key.Matches(msg, keys.Right):
		if b.activeCol < len(b.columns)-1 {
			b.activeCol++
			b.clampRow()
		}
	case key.Matches(msg, keys.Down):
		col := b.currentColumn()
		if col != nil && b.activeRow < len(col.tasks)-1 {
			b.activeRow++
			b.ensureVisible()
		}
	case key.Matches(msg, keys.Up):
		if b.activeRow > 0 {
			b.activeRow--
			b.ensureVisible()
		}
	case key.Matches(msg, keys.MoveLeft):
		b.shiftSelected(-1, 0)
	case key.Matches(msg, keys.MoveRight):
		b.shiftSelected(1, 0)
	case key.Matches(msg, keys.MoveUp):
		b.shiftSelected(0, -1)
	case key.Matches(msg, keys.MoveDown):
		b.shiftSelected(0, 1)
	case key.Matches(msg, keys.Pin):
		if t := b.selectedTask(); t != nil {
			id := t.ID
			return b, func() tea.Msg {
				_, err := b.sync.TogglePin(b.ctx, id)
				return opDoneMsg{focus: id, err: err}
			}
		}
	case key.Matches(msg, keys.Done):
		if t := b.selectedTask(); t != nil {
			return b, func() tea.Msg {
				_, err := b.sync.ToggleCompletion(b.ctx, t)
				return opDoneMsg{focus: t.ID, err: err}
			}
		}
	case key.Matches(msg, keys.Archive):
		if t := b.selectedTask(); t != nil {
			_ = b.sync.ArchiveTaskLocally(t.ID)
			b.refresh()
		}
	case key.Matches(msg, keys.Delete):
		b.handleDeleteStart()
	case key.Matches(msg, keys.NextBoard):
		return b, b.switchBoard(1)
	case key.Matches(msg, keys.PrevBoard):
		return b, b.switchBoard(-1)
	case key.Matches(msg, keys.Reload):
		return b, b.loadCmd(true)
	}
	return b, nil
}

func (b *Board) handleDeleteStart() {
	if t := b.selectedTask(); t != nil {
		b.deleteID = t.ID
		b.deleteTitle = t.Title
		b.view = viewConfirmDelete
	}
}

func (b *Board) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		b.view = viewBoard
		id := b.deleteID
		return b, func() tea.Msg {
			return opDoneMsg{err: b.sync.DeleteTask(b.ctx, id)}
		}
	case "n", "N", keyEsc, "q":
		b.view = viewBoard
	}
	return b, nil
}

// shiftSelected moves the selected task dCol columns sideways or dRow slots
// within its column. Sideways moves keep the row where possible.
func (b *Board) shiftSelected(dCol, dRow int) {
	t := b.selectedTask()
	if t == nil {
		return
	}
	src := board.Position{Column: b.columns[b.activeCol].status, Index: b.activeRow}
	target := b.activeCol + dCol
	if target < 0 || target >= len(b.columns) {
		return
	}
	dst := board.Position{Column: b.columns[target].status, Index: b.activeRow + dRow}
	if dCol != 0 {
		dst.Index = min(b.activeRow, len(b.columns[target].tasks))
	}
	if dst.Index < 0 {
		return
	}
	b.moveTask(t.ID, src, dst)
}

func (b *Board) moveTask(id string, src, dst board.Position) {
	if err := b.sync.MoveTask(id, src, &dst); err != nil {
		return
	}
	b.refresh()
	b.focus(id)
}

func (b *Board) switchBoard(delta int) tea.Cmd {
	if len(b.boards) < 2 { //nolint:mnd // nothing to switch to
		return nil
	}
	idx := 0
	for i, info := range b.boards {
		if info.ID == b.boardID {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(b.boards)) % len(b.boards)
	if err := b.sync.SetActiveBoard(b.boards[idx].ID); err != nil {
		return nil
	}
	b.refresh()
	if !b.loaded {
		return b.loadCmd(false)
	}
	return nil
}

// loadCmd reloads the active board's tasks, and the board list first when
// all is set.
func (b *Board) loadCmd(all bool) tea.Cmd {
	return func() tea.Msg {
		if all {
			if err := b.sync.LoadBoards(b.ctx); err != nil {
				return opDoneMsg{err: err}
			}
		}
		id := b.sync.ActiveBoardID()
		if id == "" {
			return opDoneMsg{}
		}
		return opDoneMsg{err: b.sync.LoadTasks(b.ctx, id)}
	}
}

// refresh rebuilds the columns from a synchronizer snapshot, keeping the
// cursor and per-column scroll offsets when the board did not change.
func (b *Board) refresh() {
	state := b.sync.Snapshot()
	b.boards = b.boards[:0]
	for _, sb := range state.Active {
		b.boards = append(b.boards, board.Info{ID: sb.ID, Name: sb.Name})
	}

	cur, ok := state.Current()
	if !ok {
		b.boardID, b.boardName, b.loaded = "", "", false
		b.columns, b.total = nil, 0
		b.activeCol, b.activeRow = 0, 0
		return
	}

	scroll := make(map[string]int, len(b.columns))
	if cur.ID == b.boardID {
		for _, c := range b.columns {
			scroll[c.status] = c.scrollOff
		}
	} else {
		b.activeCol, b.activeRow = 0, 0
	}
	b.boardID, b.boardName, b.loaded = cur.ID, cur.Name, cur.Loaded

	b.icons = make(map[string]string)
	for _, cs := range b.sync.CustomStatuses(cur.ID) {
		b.icons[cs.Name] = cs.Icon
	}

	b.columns = make([]column, len(cur.Columns))
	b.total = 0
	for i, c := range cur.Columns {
		b.columns[i] = column{status: c.Status, tasks: c.Tasks, scrollOff: scroll[c.Status]}
		b.total += len(c.Tasks)
	}
	if b.activeCol >= len(b.columns) {
		b.activeCol = max(len(b.columns)-1, 0)
	}
	b.clampRow()
}

// focus moves the cursor onto the task with the given ID, if visible.
func (b *Board) focus(id string) {
	for ci, col := range b.columns {
		if ri := task.IndexByID(col.tasks, id); ri >= 0 {
			b.activeCol, b.activeRow = ci, ri
			b.ensureVisible()
			return
		}
	}
}

// handleMouse selects a card on press and drops it on release. Releasing
// over another slot moves the task there.
func (b *Board) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if b.view != viewBoard {
		return b, nil
	}

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		colIdx, rowIdx, ok := b.hitTest(msg.X, msg.Y)
		if !ok {
			return b, nil
		}
		b.activeCol = colIdx
		col := &b.columns[colIdx]
		if rowIdx < 0 || rowIdx >= len(col.tasks) {
			b.drag = nil
			b.clampRow()
			return b, nil
		}
		b.activeRow = rowIdx
		b.ensureVisible()
		b.drag = &dragState{
			taskID: col.tasks[rowIdx].ID,
			from:   board.Position{Column: col.status, Index: rowIdx},
		}

	case msg.Action == tea.MouseActionRelease:
		drag := b.drag
		b.drag = nil
		if drag == nil {
			return b, nil
		}
		colIdx, rowIdx, ok := b.hitTest(msg.X, msg.Y)
		if !ok {
			// Dropped outside the board: a cancelled drag.
			return b, nil
		}
		col := b.columns[colIdx]
		dst := board.Position{Column: col.status, Index: min(max(rowIdx, 0), len(col.tasks))}
		if dst.Column == drag.from.Column && dst.Index > drag.from.Index {
			dst.Index-- // the dragged card no longer occupies its old slot
		}
		b.moveTask(drag.taskID, drag.from, dst)
	}

	return b, nil
}

// hitTest maps screen coordinates to a column and row. row is -1 on the
// column header and len(tasks) below the last card.
func (b *Board) hitTest(x, y int) (colIdx, rowIdx int, ok bool) {
	if len(b.columns) == 0 {
		return 0, 0, false
	}
	colWidth := b.columnWidth()
	colIdx = x / colWidth
	if colIdx >= len(b.columns) || x < 0 {
		return 0, 0, false
	}

	col := &b.columns[colIdx]
	lineY := y - tabsChrome - 1 // column header
	if col.scrollOff > 0 {
		lineY-- // "↑ N more"
	}
	if lineY < 0 {
		return colIdx, -1, y >= tabsChrome
	}

	cardLine := 0
	for rowIdx := col.scrollOff; rowIdx < len(col.tasks); rowIdx++ {
		cardH := b.cardHeight(col.tasks[rowIdx], colWidth)
		if lineY < cardLine+cardH {
			return colIdx, rowIdx, true
		}
		cardLine += cardH
	}
	return colIdx, len(col.tasks), true
}

func (b *Board) currentColumn() *column {
	if b.activeCol >= 0 && b.activeCol < len(b.columns) {
		return &b.columns[b.activeCol]
	}
	return nil
}

func (b *Board) selectedTask() *task.Task {
	col := b.currentColumn()
	if col == nil || len(col.tasks) == 0 {
		return nil
	}
	if b.activeRow >= 0 && b.activeRow < len(col.tasks) {
		return col.tasks[b.activeRow]
	}
	return nil
}

func (b *Board) clampRow() {
	col := b.currentColumn()
	if col == nil || len(col.tasks) == 0 {
		b.activeRow = 0
		return
	}
	if b.activeRow >= len(col.tasks) {
		b.activeRow = len(col.tasks) - 1
	}
	b.ensureVisible()
}

// chromeHeight returns the number of lines consumed by non-card elements:
// board tabs, blank line and status bar (+ toast when one is shown).
func (b *Board) chromeHeight() int {
	h := tabsChrome + boardChrome
	if b.toast != "" {
		h += errorChrome
	}
	return h
}

// visibleCardsForColumn returns the number of cards that fit in the column,
// accounting for scroll indicator lines ("↑ N more" / "↓ N more") that
// consume vertical space.
func (b *Board) visibleCardsForColumn(col *column, width int) int {
	budget := b.height - b.chromeHeight()
	if budget < 1 {
		return 1
	}

	// Always need 1 line for column header.
	avail := budget - 1

	if col.scrollOff > 0 {
		avail--
	}

	n := b.fitCardsInHeight(col, avail, width)

	if col.scrollOff+n < len(col.tasks) {
		n = b.fitCardsInHeight(col, avail-1, width)
		if n < 1 {
			n = 1
		}
	}

	return n
}

// ensureVisible adjusts the active column's scroll offset so the
// selected row is within the visible window.
func (b *Board) ensureVisible() {
	col := b.currentColumn()
	if col == nil || b.height == 0 {
		return
	}
	w := b.columnWidth()

	for range len(col.tasks) + 1 {
		maxVis := b.visibleCardsForColumn(col, w)

		switch {
		case b.activeRow >= col.scrollOff+maxVis:
			col.scrollOff = b.activeRow - maxVis + 1
		case b.activeRow < col.scrollOff:
			col.scrollOff = b.activeRow
		default:
			return
		}
	}
}

func (b *Board) fitCardsInHeight(col *column, avail, width int) int {
	if len(col.tasks) == 0 || avail < 1 {
		return 1
	}

	used := 0
	count := 0
	for i := col.scrollOff; i < len(col.tasks); i++ {
		cardLines := b.cardHeight(col.tasks[i], width)
		if count > 0 && used+cardLines > avail {
			break
		}
		count++
		used += cardLines
		if used >= avail {
			break
		}
	}

	return max(count, 1)
}

func (b *Board) columnWidth() int {
	if b.width == 0 || len(b.columns) == 0 {
		return 30 //nolint:mnd // default column width
	}
	// Total rendered width = w * numColumns (JoinHorizontal adds no gaps).
	w := b.width / len(b.columns)
	const maxColWidth = 60
	return max(min(w, maxColWidth), 1)
}
