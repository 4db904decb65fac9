package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

var errUnavailable = errors.New("store unavailable")

// fakeStore is an in-memory Store that counts calls and can be told to fail.
type fakeStore struct {
	mu     sync.Mutex
	authed bool
	boards []Info
	tasks  map[string][]*task.Task
	nextID int
	calls  map[string]int

	failOn map[string]error
	// statusGate, when set, blocks UpdateStatus until it receives.
	statusGate chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		authed: true,
		tasks:  make(map[string][]*task.Task),
		calls:  make(map[string]int),
		failOn: make(map[string]error),
	}
}

func (f *fakeStore) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.failOn[op]
}

func (f *fakeStore) setFail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[op] = err
}

func (f *fakeStore) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeStore) seedBoard(id, name string, archived bool, tasks ...*task.Task) {
	f.boards = append(f.boards, Info{ID: id, Name: name, Archived: archived})
	for _, t := range tasks {
		t.BoardID = id
	}
	f.tasks[id] = tasks
}

func (f *fakeStore) find(id string) *task.Task {
	for _, list := range f.tasks {
		for _, t := range list {
			if t.ID == id {
				return t
			}
		}
	}
	return nil
}

func (f *fakeStore) Authenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authed
}

func (f *fakeStore) ListBoards(context.Context) ([]Info, error) {
	if err := f.record("ListBoards"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Info(nil), f.boards...), nil
}

func (f *fakeStore) CreateBoard(_ context.Context, name string) (Info, error) {
	if err := f.record("CreateBoard"); err != nil {
		return Info{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	info := Info{ID: fmt.Sprintf("board-%d", f.nextID), Name: name}
	f.boards = append(f.boards, info)
	return info, nil
}

func (f *fakeStore) setArchived(id string, archived bool) (Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.boards {
		if f.boards[i].ID == id {
			f.boards[i].Archived = archived
			return f.boards[i], nil
		}
	}
	return Info{}, clierr.New(clierr.BoardNotFound, "board not found")
}

func (f *fakeStore) ArchiveBoard(_ context.Context, id string) (Info, error) {
	if err := f.record("ArchiveBoard"); err != nil {
		return Info{}, err
	}
	return f.setArchived(id, true)
}

func (f *fakeStore) RestoreBoard(_ context.Context, id string) (Info, error) {
	if err := f.record("RestoreBoard"); err != nil {
		return Info{}, err
	}
	return f.setArchived(id, false)
}

func (f *fakeStore) DeleteBoard(_ context.Context, id string) error {
	if err := f.record("DeleteBoard"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.boards[:0]
	for _, b := range f.boards {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	f.boards = kept
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) ListTasks(_ context.Context, boardID string) ([]*task.Task, error) {
	if err := f.record("ListTasks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*task.Task, len(f.tasks[boardID]))
	for i, t := range f.tasks[boardID] {
		out[i] = t.Clone()
	}
	return out, nil
}

func (f *fakeStore) CreateTask(_ context.Context, t *task.Task) (*task.Task, error) {
	if err := f.record("CreateTask"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	created := t.Clone()
	created.ID = fmt.Sprintf("task-%d", f.nextID)
	f.tasks[t.BoardID] = append(f.tasks[t.BoardID], created)
	return created.Clone(), nil
}

func (f *fakeStore) UpdateTask(_ context.Context, t *task.Task) (*task.Task, error) {
	if err := f.record("UpdateTask"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.find(t.ID)
	if stored == nil {
		return nil, clierr.New(clierr.TaskNotFound, "task not found")
	}
	*stored = *t.Clone()
	return stored.Clone(), nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id, status string) error {
	if f.statusGate != nil {
		<-f.statusGate
	}
	if err := f.record("UpdateStatus"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored := f.find(id); stored != nil {
		stored.Status = status
	}
	return nil
}

func (f *fakeStore) DeleteTask(_ context.Context, id string) error {
	if err := f.record("DeleteTask"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for b, list := range f.tasks {
		if i := task.IndexByID(list, id); i >= 0 {
			f.tasks[b] = append(list[:i:i], list[i+1:]...)
		}
	}
	return nil
}

func (f *fakeStore) TogglePin(_ context.Context, id string) (*task.Task, error) {
	if err := f.record("TogglePin"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.find(id)
	if stored == nil {
		return nil, clierr.New(clierr.TaskNotFound, "task not found")
	}
	stored.Pinned = !stored.Pinned
	return stored.Clone(), nil
}

// recorder is an EventSink that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *recorder) last(kind EventKind) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

func (r *recorder) forTask(kind EventKind, taskID string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Kind == kind && e.TaskID == taskID {
			return e, true
		}
	}
	return Event{}, false
}
