package board

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/logging"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

const defaultPersistTimeout = 10 * time.Second

// Options configures a Synchronizer.
type Options struct {
	// BaseStatuses are the columns every board starts with.
	BaseStatuses []string
	// RollbackOnMoveFailure restores the pre-move columns when persisting a
	// move fails and neither column changed in the meantime.
	RollbackOnMoveFailure bool
	// PersistTimeout bounds the background status update after a move.
	PersistTimeout time.Duration
	// JournalDir, when set, receives activity.jsonl entries.
	JournalDir string

	Sink     EventSink
	Logger   *log.Logger
	Now      func() time.Time
	Location *time.Location
}

// DefaultOptions returns options with the base columns and rollback on.
func DefaultOptions() Options {
	return Options{
		BaseStatuses:          task.BaseStatuses(),
		RollbackOnMoveFailure: true,
	}
}

// boardState is the synchronizer's private record of one board. Column
// slices are never modified in place: every mutation installs a new slice,
// so slices handed to a snapshot or kept for rollback stay valid.
type boardState struct {
	info    Info
	loaded  bool
	order   []string
	columns map[string][]*task.Task
	rev     map[string]uint64
	shelf   []*task.Task
}

// Synchronizer owns the in-memory boards and reconciles them with a Store.
// It is safe for concurrent use; the lock is never held across store calls.
type Synchronizer struct {
	store Store
	prefs Prefs
	opts  Options
	log   *log.Logger

	mu       sync.Mutex
	boards   map[string]*boardState
	active   []string
	archived []string
	activeID string

	inflight sync.WaitGroup
}

// New returns a Synchronizer over store. prefs may be nil.
func New(store Store, prefs Prefs, opts Options) *Synchronizer {
	if len(opts.BaseStatuses) == 0 {
		opts.BaseStatuses = task.BaseStatuses()
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Synchronizer{
		store:  store,
		prefs:  prefs,
		opts:   opts,
		log:    logger,
		boards: make(map[string]*boardState),
	}
}

// Wait blocks until every background move persistence has finished.
func (s *Synchronizer) Wait() {
	s.inflight.Wait()
}

func (s *Synchronizer) now() time.Time { return s.opts.Now() }

func (s *Synchronizer) publish(e Event) {
	if s.opts.Sink != nil {
		s.opts.Sink.Publish(e)
	}
}

// fail converts err into a structured error, logs it and publishes it with
// a user-facing message. Errors without a code are transport failures.
func (s *Synchronizer) fail(kind EventKind, boardID, taskID, message string, err error) error {
	if clierr.CodeOf(err) == "" {
		err = clierr.Wrap(clierr.TransportError, err, message+": "+err.Error())
	}
	s.log.Warn(message, "board", boardID, "task", taskID, "err", err)
	s.publish(Event{Kind: kind, BoardID: boardID, TaskID: taskID, Message: message, Err: err})
	return err
}

// requireAuth short-circuits mutating operations without a credential.
func (s *Synchronizer) requireAuth(boardID, taskID string) error {
	if s.store.Authenticated() {
		return nil
	}
	err := clierr.New(clierr.AuthRequired, "Login required")
	s.publish(Event{Kind: EventError, BoardID: boardID, TaskID: taskID, Message: err.Message, Err: err})
	return err
}

// reject publishes a local validation failure and returns it.
func (s *Synchronizer) reject(boardID, taskID string, err error) error {
	s.publish(Event{Kind: EventError, BoardID: boardID, TaskID: taskID, Message: err.Error(), Err: err})
	return err
}

func (s *Synchronizer) customStatuses(boardID string) []task.CustomStatus {
	if s.prefs == nil {
		return nil
	}
	cs, err := s.prefs.CustomStatuses(boardID)
	if err != nil {
		s.log.Warn("reading custom statuses", "board", boardID, "err", err)
		return nil
	}
	return cs
}

func (s *Synchronizer) savedActiveBoard() string {
	if s.prefs == nil {
		return ""
	}
	id, err := s.prefs.ActiveBoard()
	if err != nil {
		s.log.Warn("reading active board preference", "err", err)
		return ""
	}
	return id
}

func (s *Synchronizer) persistActiveBoard(id string) {
	if s.prefs == nil {
		return
	}
	if err := s.prefs.SetActiveBoard(id); err != nil {
		s.log.Warn("saving active board preference", "board", id, "err", err)
	}
}

func newBoardState(info Info, order []string) *boardState {
	bs := &boardState{
		info:    info,
		order:   append([]string(nil), order...),
		columns: make(map[string][]*task.Task, len(order)),
		rev:     make(map[string]uint64, len(order)),
	}
	for _, k := range order {
		bs.columns[k] = []*task.Task{}
	}
	return bs
}

// setColumn installs a new slice for status and bumps its revision.
func (bs *boardState) setColumn(status string, tasks []*task.Task) {
	if _, ok := bs.columns[status]; !ok {
		bs.order = append(bs.order, status)
	}
	bs.columns[status] = tasks
	bs.rev[status]++
}

func (bs *boardState) hasColumn(status string) bool {
	_, ok := bs.columns[status]
	return ok
}

// locate finds a task by ID across the board's columns.
func (bs *boardState) locate(id string) (Position, bool) {
	for _, k := range bs.order {
		if i := task.IndexByID(bs.columns[k], id); i >= 0 {
			return Position{Column: k, Index: i}, true
		}
	}
	return Position{}, false
}

func (bs *boardState) snapshot() Board {
	b := Board{
		ID:       bs.info.ID,
		Name:     bs.info.Name,
		Archived: bs.info.Archived,
		Loaded:   bs.loaded,
		Columns:  make([]Column, 0, len(bs.order)),
	}
	for _, k := range bs.order {
		src := bs.columns[k]
		tasks := make([]*task.Task, len(src))
		for i, t := range src {
			tasks[i] = t.Clone()
		}
		b.Columns = append(b.Columns, Column{Status: k, Tasks: tasks})
	}
	return b
}

// LoadBoards fetches all boards, partitions them by the archived flag and
// designates the active board: the previous one if still active, else the
// saved preference, else the first active board, else none. Columns already
// loaded for a board survive the reload. On failure nothing changes.
func (s *Synchronizer) LoadBoards(ctx context.Context) error {
	infos, err := s.store.ListBoards(ctx)
	if err != nil {
		return s.fail(EventError, "", "", "Failed to load boards", err)
	}

	custom := make(map[string][]task.CustomStatus, len(infos))
	for _, info := range infos {
		custom[info.ID] = s.customStatuses(info.ID)
	}
	saved := s.savedActiveBoard()

	s.mu.Lock()
	boards := make(map[string]*boardState, len(infos))
	var active, archived []string
	for _, info := range infos {
		bs, ok := s.boards[info.ID]
		if ok {
			bs.info = info
		} else {
			bs = newBoardState(info, columnOrder(s.opts.BaseStatuses, custom[info.ID]))
		}
		boards[info.ID] = bs
		if info.Archived {
			archived = append(archived, info.ID)
		} else {
			active = append(active, info.ID)
		}
	}

	prev := s.activeID
	next := ""
	switch {
	case containsStr(active, prev):
		next = prev
	case containsStr(active, saved):
		next = saved
	case len(active) > 0:
		next = active[0]
	}
	s.boards, s.active, s.archived, s.activeID = boards, active, archived, next
	s.mu.Unlock()

	if next != "" && next != saved {
		s.persistActiveBoard(next)
	}
	s.log.Debug("boards loaded", "active", len(active), "archived", len(archived), "current", next)
	s.publish(Event{Kind: EventBoardsLoaded, BoardID: next})
	return nil
}

// LoadTasks fetches the tasks of boardID, groups them into columns by
// status (missing status means todo), pinned-sorts each column and replaces
// the board's columns wholesale. The local archive shelf is cleared.
func (s *Synchronizer) LoadTasks(ctx context.Context, boardID string) error {
	s.mu.Lock()
	_, ok := s.boards[boardID]
	s.mu.Unlock()
	if !ok {
		return s.reject(boardID, "", boardNotFound(boardID))
	}

	fetched, err := s.store.ListTasks(ctx, boardID)
	if err != nil {
		return s.fail(EventError, boardID, "", "Failed to load tasks", err)
	}
	tasks := make([]*task.Task, len(fetched))
	for i, t := range fetched {
		tasks[i] = t.Clone()
		if tasks[i].BoardID == "" {
			tasks[i].BoardID = boardID
		}
	}
	base := columnOrder(s.opts.BaseStatuses, s.customStatuses(boardID))

	s.mu.Lock()
	bs, ok := s.boards[boardID]
	if !ok {
		s.mu.Unlock()
		return s.reject(boardID, "", boardNotFound(boardID))
	}
	cols, order := groupByStatus(tasks, base)
	for k := range bs.rev {
		bs.rev[k]++
	}
	for _, k := range order {
		bs.rev[k]++
	}
	bs.columns, bs.order, bs.loaded, bs.shelf = cols, order, true, nil
	s.mu.Unlock()

	s.log.Debug("tasks loaded", "board", boardID, "tasks", len(tasks))
	s.publish(Event{Kind: EventTasksLoaded, BoardID: boardID})
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Synchronizer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{ActiveID: s.activeID}
	for _, id := range s.active {
		st.Active = append(st.Active, s.boards[id].snapshot())
	}
	for _, id := range s.archived {
		st.Archived = append(st.Archived, s.boards[id].snapshot())
	}
	return st
}

// ActiveBoardID returns the active board ID, or "".
func (s *Synchronizer) ActiveBoardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Board returns a copy of the board with the given ID.
func (s *Synchronizer) Board(id string) (Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bs, ok := s.boards[id]
	if !ok {
		return Board{}, false
	}
	return bs.snapshot(), true
}

// Find returns a copy of the task with the given ID and its position on the
// active board.
func (s *Synchronizer) Find(taskID string) (*task.Task, Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bs, ok := s.boards[s.activeID]
	if !ok {
		return nil, Position{}, false
	}
	pos, ok := bs.locate(taskID)
	if !ok {
		return nil, Position{}, false
	}
	return bs.columns[pos.Column][pos.Index].Clone(), pos, true
}

// ArchivedTasks returns copies of the tasks archived locally on boardID.
func (s *Synchronizer) ArchivedTasks(boardID string) []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	bs, ok := s.boards[boardID]
	if !ok {
		return nil
	}
	out := make([]*task.Task, len(bs.shelf))
	for i, t := range bs.shelf {
		out[i] = t.Clone()
	}
	return out
}

func boardNotFound(id string) *clierr.Error {
	return clierr.Newf(clierr.BoardNotFound, "board not found: %s", id).
		WithDetails(map[string]any{"id": id})
}

func noActiveBoard() *clierr.Error {
	return clierr.New(clierr.BoardNotFound, "no active board")
}
