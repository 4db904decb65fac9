package board

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/prefs"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

var testNow = time.Date(2025, time.March, 4, 17, 5, 9, 0, time.UTC)

func tk(id, status string) *task.Task {
	return &task.Task{ID: id, Title: "task " + id, Status: status}
}

func pinned(id, status string) *task.Task {
	t := tk(id, status)
	t.Pinned = true
	return t
}

// setup returns a synchronizer over a fake store seeded with one active
// board "b1" holding the given tasks, already loaded.
func setup(t *testing.T, tasks ...*task.Task) (*Synchronizer, *fakeStore, *recorder) {
	t.Helper()
	store := newFakeStore()
	store.seedBoard("b1", "Main", false, tasks...)
	rec := &recorder{}
	opts := DefaultOptions()
	opts.Sink = rec
	opts.Now = func() time.Time { return testNow }
	opts.Location = time.UTC
	opts.JournalDir = t.TempDir()
	s := New(store, prefs.NewMemory(), opts)

	ctx := context.Background()
	if err := s.LoadBoards(ctx); err != nil {
		t.Fatalf("LoadBoards: %v", err)
	}
	if err := s.LoadTasks(ctx, "b1"); err != nil {
		t.Fatalf("LoadTasks: %v", err)
	}
	return s, store, rec
}

// columnIDs renders the active board as status -> task IDs.
func columnIDs(t *testing.T, s *Synchronizer) map[string][]string {
	t.Helper()
	b, ok := s.Snapshot().Current()
	if !ok {
		t.Fatal("no active board")
	}
	out := make(map[string][]string, len(b.Columns))
	for _, c := range b.Columns {
		ids := []string{}
		for _, tk := range c.Tasks {
			ids = append(ids, tk.ID)
		}
		out[c.Status] = ids
	}
	return out
}

// assertUnique checks that every task appears exactly once across all boards.
func assertUnique(t *testing.T, s *Synchronizer) {
	t.Helper()
	seen := make(map[string]string)
	st := s.Snapshot()
	for _, b := range append(st.Active, st.Archived...) {
		for _, c := range b.Columns {
			for _, tk := range c.Tasks {
				if where, dup := seen[tk.ID]; dup {
					t.Fatalf("task %s in %s and %s/%s", tk.ID, where, b.ID, c.Status)
				}
				seen[tk.ID] = b.ID + "/" + c.Status
				if tk.Status != c.Status {
					t.Fatalf("task %s has status %q but sits in column %q", tk.ID, tk.Status, c.Status)
				}
			}
		}
	}
}

func TestLoadBoardsPartitionsAndPicksActive(t *testing.T) {
	store := newFakeStore()
	store.seedBoard("old", "Old", true)
	store.seedBoard("b1", "Main", false)
	store.seedBoard("b2", "Side", false)
	p := prefs.NewMemory()
	s := New(store, p, DefaultOptions())

	if err := s.LoadBoards(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := s.Snapshot()
	if len(st.Active) != 2 || len(st.Archived) != 1 || st.Archived[0].ID != "old" {
		t.Fatalf("partition wrong: %+v", st)
	}
	if st.ActiveID != "b1" {
		t.Errorf("ActiveID = %q, want first active board", st.ActiveID)
	}
	if saved, _ := p.ActiveBoard(); saved != "b1" {
		t.Errorf("active board not persisted: %q", saved)
	}
	b, _ := st.Board("b2")
	if !reflect.DeepEqual(b.Statuses(), task.BaseStatuses()) {
		t.Errorf("empty board columns = %v", b.Statuses())
	}

	// The previous active board wins over the first one on reload.
	if err := s.SetActiveBoard("b2"); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadBoards(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.ActiveBoardID(); got != "b2" {
		t.Errorf("ActiveID after reload = %q, want b2", got)
	}
}

func TestLoadBoardsUsesSavedPreference(t *testing.T) {
	store := newFakeStore()
	store.seedBoard("b1", "Main", false)
	store.seedBoard("b2", "Side", false)
	p := prefs.NewMemory()
	_ = p.SetActiveBoard("b2")

	s := New(store, p, DefaultOptions())
	if err := s.LoadBoards(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.ActiveBoardID(); got != "b2" {
		t.Errorf("ActiveID = %q, want saved b2", got)
	}
}

func TestLoadBoardsNoActive(t *testing.T) {
	store := newFakeStore()
	store.seedBoard("old", "Old", true)
	s := New(store, nil, DefaultOptions())
	if err := s.LoadBoards(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.ActiveBoardID(); got != "" {
		t.Errorf("ActiveID = %q, want none", got)
	}
}

func TestLoadBoardsFailureKeepsState(t *testing.T) {
	s, store, rec := setup(t, tk("T1", "todo"))
	before := s.Snapshot()

	store.setFail("ListBoards", errUnavailable)
	err := s.LoadBoards(context.Background())
	if !clierr.HasCode(err, clierr.TransportError) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("state changed after failed load")
	}
	if ev, ok := rec.last(EventError); !ok || ev.Message != "Failed to load boards" {
		t.Errorf("error event = %+v", ev)
	}
}

func TestLoadBoardsPreservesColumns(t *testing.T) {
	s, _, _ := setup(t, tk("T1", "todo"))
	if err := s.LoadBoards(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := columnIDs(t, s)["todo"]; !reflect.DeepEqual(got, []string{"T1"}) {
		t.Errorf("todo after reload = %v", got)
	}
}

func TestLoadTasksGroupsAndSorts(t *testing.T) {
	s, _, _ := setup(t,
		tk("A", "todo"),
		tk("B", ""),
		pinned("C", "todo"),
		tk("D", "review"),
		tk("E", "done"),
		pinned("F", "done"),
	)
	got := columnIDs(t, s)
	want := map[string][]string{
		"todo":       {"C", "A", "B"},
		"inprogress": {},
		"done":       {"F", "E"},
		"review":     {"D"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
	b, _ := s.Snapshot().Current()
	if want := []string{"todo", "inprogress", "done", "review"}; !reflect.DeepEqual(b.Statuses(), want) {
		t.Errorf("column order = %v, want %v", b.Statuses(), want)
	}
	assertUnique(t, s)
}

func TestLoadTasksUnknownBoard(t *testing.T) {
	s, store, _ := setup(t)
	before := store.callCount("ListTasks")
	if err := s.LoadTasks(context.Background(), "nope"); !clierr.HasCode(err, clierr.BoardNotFound) {
		t.Fatalf("err = %v", err)
	}
	if store.callCount("ListTasks") != before {
		t.Error("unknown board reached the store")
	}
}

func TestMoveTaskScenario(t *testing.T) {
	s, store, _ := setup(t, tk("T1", "todo"), tk("T2", "todo"))

	if err := s.MoveTask("T1", Position{"todo", 0}, &Position{"inprogress", 0}); err != nil {
		t.Fatalf("MoveTask: %v", err)
	}
	want := map[string][]string{"todo": {"T2"}, "inprogress": {"T1"}, "done": {}}
	if got := columnIDs(t, s); !reflect.DeepEqual(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}

	s.Wait()
	if store.callCount("UpdateStatus") != 1 {
		t.Errorf("UpdateStatus calls = %d", store.callCount("UpdateStatus"))
	}
	if got := store.find("T1").Status; got != "inprogress" {
		t.Errorf("stored status = %q", got)
	}
	assertUnique(t, s)
}

func TestMoveTaskAppliesBeforeNetwork(t *testing.T) {
	s, store, _ := setup(t, tk("T1", "todo"))
	store.statusGate = make(chan struct{})

	if err := s.MoveTask("T1", Position{"todo", 0}, &Position{"done", 0}); err != nil {
		t.Fatal(err)
	}
	if got := columnIDs(t, s)["done"]; !reflect.DeepEqual(got, []string{"T1"}) {
		t.Errorf("move not applied while persist pending: %v", got)
	}
	close(store.statusGate)
	s.Wait()
}

func TestMoveTaskNoOps(t *testing.T) {
	s, store, rec := setup(t, tk("T1", "todo"), tk("T2", "todo"))
	before := s.Snapshot()
	events := len(rec.kinds())

	if err := s.MoveTask("T1", Position{"todo", 0}, &Position{"todo", 0}); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveTask("T1", Position{"todo", 0}, nil); err != nil {
		t.Fatal(err)
	}
	s.Wait()

	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("no-op move changed state")
	}
	if store.callCount("UpdateStatus") != 0 {
		t.Error("no-op move reached the store")
	}
	if len(rec.kinds()) != events {
		t.Error("no-op move published events")
	}
}

func TestMoveTaskPreservesCount(t *testing.T) {
	tests := []struct {
		name string
		src  Position
		dst  Position
		want map[string][]string
	}{
		{
			name: "across columns at end",
			src:  Position{"todo", 1},
			dst:  Position{"done", 5},
			want: map[string][]string{"todo": {"T1", "T3"}, "inprogress": {}, "done": {"T4", "T2"}},
		},
		{
			name: "within column",
			src:  Position{"todo", 0},
			dst:  Position{"todo", 2},
			want: map[string][]string{"todo": {"T2", "T3", "T1"}, "inprogress": {}, "done": {"T4"}},
		},
		{
			name: "negative index clamps to front",
			src:  Position{"done", 0},
			dst:  Position{"todo", -3},
			want: map[string][]string{"todo": {"T4", "T1", "T2", "T3"}, "inprogress": {}, "done": {}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := setup(t, tk("T1", "todo"), tk("T2", "todo"), tk("T3", "todo"), tk("T4", "done"))
			id := columnIDs(t, s)[tt.src.Column][tt.src.Index]
			dst := tt.dst
			if err := s.MoveTask(id, tt.src, &dst); err != nil {
				t.Fatal(err)
			}
			s.Wait()
			got := columnIDs(t, s)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("columns = %v, want %v", got, tt.want)
			}
			total := 0
			for _, ids := range got {
				total += len(ids)
			}
			if total != 4 {
				t.Errorf("task count = %d, want 4", total)
			}
			assertUnique(t, s)
		})
	}
}

func TestMoveTaskKeepsPinnedFirst(t *testing.T) {
	s, _, _ := setup(t, pinned("P", "done"), tk("T1", "todo"))
	if err := s.MoveTask("T1", Position{"todo", 0}, &Position{"done", 0}); err != nil {
		t.Fatal(err)
	}
	s.Wait()
	if got := columnIDs(t, s)["done"]; !reflect.DeepEqual(got, []string{"P", "T1"}) {
		t.Errorf("done = %v, want pinned task first", got)
	}
}

func TestMoveTaskValidation(t *testing.T) {
	s, store, _ := setup(t, tk("T1", "todo"))

	err := s.MoveTask("T1", Position{"todo", 3}, &Position{"done", 0})
	if !clierr.HasCode(err, clierr.ValidationError) {
		t.Errorf("stale source: err = %v", err)
	}
	err = s.MoveTask("T9", Position{"todo", 0}, &Position{"done", 0})
	if !clierr.HasCode(err, clierr.ValidationError) {
		t.Errorf("wrong task at source: err = %v", err)
	}
	err = s.MoveTask("T1", Position{"todo", 0}, &Position{"nowhere", 0})
	if !clierr.HasCode(err, clierr.InvalidStatus) {
		t.Errorf("unknown column: err = %v", err)
	}
	s.Wait()
	if store.callCount("UpdateStatus") != 0 {
		t.Error("invalid move reached the store")
	}
}

func TestMoveTaskFailureRollsBack(t *testing.T) {
	s, store, rec := setup(t, tk("T1", "todo"), tk("T2", "todo"))
	before := columnIDs(t, s)
	store.setFail("UpdateStatus", errUnavailable)

	if err := s.MoveTask("T1", Position{"todo", 0}, &Position{"done", 0}); err != nil {
		t.Fatal(err)
	}
	s.Wait()

	if got := columnIDs(t, s); !reflect.DeepEqual(got, before) {
		t.Errorf("columns = %v, want rollback to %v", got, before)
	}
	ev, ok := rec.last(EventMoveFailed)
	if !ok || !ev.RolledBack || ev.Message != "Failed to update task position" {
		t.Errorf("move failed event = %+v", ev)
	}
	if !clierr.HasCode(ev.Err, clierr.TransportError) {
		t.Errorf("event error = %v", ev.Err)
	}
	if tsk, _, _ := s.Find("T1"); tsk.Status != "todo" {
		t.Errorf("rolled back task status = %q", tsk.Status)
	}
	assertUnique(t, s)
}

func TestMoveTaskFailureWithoutRollback(t *testing.T) {
	store := newFakeStore()
	store.seedBoard("b1", "Main", false, tk("T1", "todo"))
	rec := &recorder{}
	opts := DefaultOptions()
	opts.RollbackOnMoveFailure = false
	opts.Sink = rec
	s := New(store, nil, opts)
	ctx := context.Background()
	if err := s.LoadBoards(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadTasks(ctx, "b1"); err != nil {
		t.Fatal(err)
	}
	store.setFail("UpdateStatus", errUnavailable)

	if err := s.MoveTask("T1", Position{"todo", 0}, &Position{"done", 0}); err != nil {
		t.Fatal(err)
	}
	s.Wait()

	if got := columnIDs(t, s)["done"]; !reflect.DeepEqual(got, []string{"T1"}) {
		t.Errorf("local move undone without rollback: %v", got)
	}
	if ev, ok := rec.last(EventMoveFailed); !ok || ev.RolledBack {
		t.Errorf("move failed event = %+v", ev)
	}
}

func TestMoveTaskRollbackSkipsChangedColumns(t *testing.T) {
	s, store, rec := setup(t, tk("T1", "todo"), tk("T2", "todo"))
	store.statusGate = make(chan struct{})
	store.setFail("UpdateStatus", errUnavailable)

	if err := s.MoveTask("T1", Position{"todo", 0}, &Position{"done", 0}); err != nil {
		t.Fatal(err)
	}
	// A second move lands in the same column before the first fails.
	if err := s.MoveTask("T2", Position{"todo", 0}, &Position{"done", 1}); err != nil {
		t.Fatal(err)
	}
	close(store.statusGate)
	s.Wait()

	// The first move's columns changed underneath it, so only the second
	// move is undone.
	want := map[string][]string{"todo": {"T2"}, "inprogress": {}, "done": {"T1"}}
	if got := columnIDs(t, s); !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
	if ev, ok := rec.forTask(EventMoveFailed, "T1"); !ok || ev.RolledBack {
		t.Errorf("stale rollback applied for T1: %+v", ev)
	}
	if ev, ok := rec.forTask(EventMoveFailed, "T2"); !ok || !ev.RolledBack {
		t.Errorf("T2 not rolled back: %+v", ev)
	}
	assertUnique(t, s)
}

func TestMoveTaskRollbackSkipsReplacedBoard(t *testing.T) {
	s, store, rec := setup(t, tk("T1", "todo"))
	store.statusGate = make(chan struct{})
	store.setFail("UpdateStatus", errUnavailable)

	if err := s.MoveTask("T1", Position{"todo", 0}, &Position{"done", 0}); err != nil {
		t.Fatal(err)
	}

	// The board is dropped and loaded again while the persist is pending.
	// The new state happens to carry the same column revisions.
	s.mu.Lock()
	old := s.boards["b1"]
	fresh := newBoardState(old.info, append([]string(nil), old.order...))
	for k, list := range old.columns {
		fresh.columns[k] = list
	}
	for k, r := range old.rev {
		fresh.rev[k] = r
	}
	fresh.loaded = true
	s.boards["b1"] = fresh
	s.mu.Unlock()

	close(store.statusGate)
	s.Wait()

	if ev, ok := rec.forTask(EventMoveFailed, "T1"); !ok || ev.RolledBack {
		t.Errorf("rollback applied to a replaced board: %+v", ev)
	}
	want := map[string][]string{"todo": {}, "inprogress": {}, "done": {"T1"}}
	if got := columnIDs(t, s); !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
}

func TestAddTaskRequiresAuth(t *testing.T) {
	s, store, rec := setup(t, tk("T1", "todo"))
	store.authed = false
	before := s.Snapshot()
	calls := store.totalCalls()

	_, err := s.AddTask(context.Background(), "todo", task.Draft{Title: "New"})
	if !clierr.HasCode(err, clierr.AuthRequired) {
		t.Fatalf("err = %v, want AuthRequired", err)
	}
	if store.totalCalls() != calls {
		t.Error("AddTask without credential reached the store")
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("AddTask without credential mutated state")
	}
	if ev, ok := rec.last(EventError); !ok || ev.Message != "Login required" {
		t.Errorf("error event = %+v", ev)
	}
}

func TestAddTaskAppendsCanonical(t *testing.T) {
	s, store, _ := setup(t, tk("T1", "todo"))
	due := testNow.Add(24 * time.Hour)

	created, err := s.AddTask(context.Background(), "todo", task.Draft{
		Title:       "  Write docs ",
		Description: "all of them",
		Due:         &due,
		Subtasks:    []task.Subtask{{Title: "api"}},
	})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if created.ID == "" || created.Title != "Write docs" || created.BoardID != "b1" {
		t.Errorf("created = %+v", created)
	}
	wantHistory := []task.Transition{{From: "created", To: "todo", Time: "3/4/2025, 5:05:09 PM", TZ: "UTC"}}
	if !reflect.DeepEqual(created.History, wantHistory) {
		t.Errorf("history = %+v", created.History)
	}
	if got := columnIDs(t, s)["todo"]; !reflect.DeepEqual(got, []string{"T1", created.ID}) {
		t.Errorf("todo = %v", got)
	}
	if store.find(created.ID) == nil {
		t.Error("task not stored")
	}
}

func TestAddTaskFailures(t *testing.T) {
	s, store, _ := setup(t)
	ctx := context.Background()

	if _, err := s.AddTask(ctx, "todo", task.Draft{Title: " "}); !clierr.HasCode(err, clierr.ValidationError) {
		t.Errorf("blank title: %v", err)
	}
	if _, err := s.AddTask(ctx, "nowhere", task.Draft{Title: "x"}); !clierr.HasCode(err, clierr.InvalidStatus) {
		t.Errorf("unknown column: %v", err)
	}
	if store.callCount("CreateTask") != 0 {
		t.Error("invalid draft reached the store")
	}

	store.setFail("CreateTask", errUnavailable)
	before := s.Snapshot()
	if _, err := s.AddTask(ctx, "todo", task.Draft{Title: "x"}); !clierr.HasCode(err, clierr.TransportError) {
		t.Errorf("store failure: %v", err)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("failed AddTask mutated state")
	}
}

func TestUpdateTaskReplacesInPlace(t *testing.T) {
	s, _, _ := setup(t, tk("T1", "todo"), tk("T2", "todo"))
	cur, _, _ := s.Find("T1")
	cur.Title = "Renamed"
	cur.Subtasks = []task.Subtask{{Title: "child", Subtasks: []task.Subtask{{Title: "grandchild"}}}}

	if _, err := s.UpdateTask(context.Background(), cur); err != nil {
		t.Fatal(err)
	}
	got, pos, _ := s.Find("T1")
	if got.Title != "Renamed" || pos != (Position{"todo", 0}) {
		t.Errorf("task = %+v at %+v", got, pos)
	}
	if len(got.Subtasks) != 1 || len(got.Subtasks[0].Subtasks) != 1 {
		t.Errorf("subtasks lost: %+v", got.Subtasks)
	}
}

func TestUpdateTaskMovesOnStatusChange(t *testing.T) {
	s, _, _ := setup(t, tk("T1", "todo"))
	cur, _, _ := s.Find("T1")
	task.ChangeStatus(cur, "done", testNow, time.UTC)

	if _, err := s.UpdateTask(context.Background(), cur); err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{"todo": {}, "inprogress": {}, "done": {"T1"}}
	if got := columnIDs(t, s); !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v", got)
	}
	assertUnique(t, s)
}

func TestUpdateTaskFailureKeepsState(t *testing.T) {
	s, store, rec := setup(t, tk("T1", "todo"))
	store.setFail("UpdateTask", errUnavailable)
	before := s.Snapshot()

	cur, _, _ := s.Find("T1")
	cur.Title = "Renamed"
	if _, err := s.UpdateTask(context.Background(), cur); err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("failed update mutated state")
	}
	if ev, ok := rec.last(EventError); !ok || ev.Message != "Failed to update task" {
		t.Errorf("event = %+v", ev)
	}
}

func TestDeleteTask(t *testing.T) {
	s, store, _ := setup(t, tk("T1", "todo"), tk("T2", "done"))

	if err := s.DeleteTask(context.Background(), "T2"); err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{"todo": {"T1"}, "inprogress": {}, "done": {}}
	if got := columnIDs(t, s); !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v", got)
	}
	if store.find("T2") != nil {
		t.Error("task still stored")
	}
}

func TestDeleteTaskUnknownID(t *testing.T) {
	s, store, _ := setup(t, tk("T1", "todo"))
	before := s.Snapshot()

	if err := s.DeleteTask(context.Background(), "ghost"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if store.callCount("DeleteTask") != 1 {
		t.Error("remote delete not issued")
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("columns changed")
	}
}

func TestToggleCompletion(t *testing.T) {
	s, _, _ := setup(t, tk("T1", "todo"))
	cur, _, _ := s.Find("T1")

	got, err := s.ToggleCompletion(context.Background(), cur)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completed {
		t.Error("not completed")
	}
	want := task.Transition{From: "incomplete", To: "completed", Time: "3/4/2025, 5:05:09 PM", TZ: "UTC"}
	if len(got.History) != 1 || got.History[0] != want {
		t.Errorf("history = %+v", got.History)
	}
	if cur.Completed {
		t.Error("caller's task was mutated")
	}
	stored, _, _ := s.Find("T1")
	if !stored.Completed {
		t.Error("local state not updated")
	}
}

func TestTogglePinScenario(t *testing.T) {
	s, _, _ := setup(t, tk("T1", "todo"), tk("T2", "todo"), tk("T3", "todo"), tk("T4", "todo"))

	got, err := s.TogglePin(context.Background(), "T3")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Pinned {
		t.Error("T3 not pinned")
	}
	if ids := columnIDs(t, s)["todo"]; !reflect.DeepEqual(ids, []string{"T3", "T1", "T2", "T4"}) {
		t.Errorf("todo = %v", ids)
	}

	// Unpinning puts it back behind the (now empty) pinned group.
	if _, err := s.TogglePin(context.Background(), "T3"); err != nil {
		t.Fatal(err)
	}
	if ids := columnIDs(t, s)["todo"]; !reflect.DeepEqual(ids, []string{"T3", "T1", "T2", "T4"}) {
		t.Errorf("todo after unpin = %v", ids)
	}
}

func TestTogglePinFailureKeepsState(t *testing.T) {
	s, store, _ := setup(t, tk("T1", "todo"), tk("T2", "todo"))
	store.setFail("TogglePin", clierr.New(clierr.TaskNotFound, "task not found"))
	before := s.Snapshot()

	_, err := s.TogglePin(context.Background(), "T2")
	if !clierr.HasCode(err, clierr.TaskNotFound) {
		t.Fatalf("err = %v", err)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("state changed")
	}
}

func TestArchiveTaskLocally(t *testing.T) {
	s, store, _ := setup(t, tk("T1", "todo"), tk("T2", "todo"))
	calls := store.totalCalls()

	if err := s.ArchiveTaskLocally("T1"); err != nil {
		t.Fatal(err)
	}
	if store.totalCalls() != calls {
		t.Error("local archive reached the store")
	}
	if ids := columnIDs(t, s)["todo"]; !reflect.DeepEqual(ids, []string{"T2"}) {
		t.Errorf("todo = %v", ids)
	}
	shelf := s.ArchivedTasks("b1")
	if len(shelf) != 1 || shelf[0].ID != "T1" {
		t.Errorf("shelf = %+v", shelf)
	}
	if err := s.ArchiveTaskLocally("T1"); !clierr.HasCode(err, clierr.TaskNotFound) {
		t.Errorf("second archive: %v", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s, _, _ := setup(t, tk("T1", "todo"))
	snap := s.Snapshot()
	b, _ := snap.Current()
	b.Columns[0].Tasks[0].Title = "scribbled"

	cur, _, _ := s.Find("T1")
	if cur.Title == "scribbled" {
		t.Error("snapshot aliases internal state")
	}
}

func TestPinnedSortIdempotent(t *testing.T) {
	list := []*task.Task{tk("a", ""), pinned("b", ""), tk("c", ""), pinned("d", "")}
	SortPinned(list)
	first := make([]string, len(list))
	for i, item := range list {
		first[i] = item.ID
	}
	SortPinned(list)
	for i, item := range list {
		if item.ID != first[i] {
			t.Fatalf("second sort changed order: %v", first)
		}
	}
	if !reflect.DeepEqual(first, []string{"b", "d", "a", "c"}) {
		t.Errorf("order = %v", first)
	}
	if !IsPinnedSorted(list) {
		t.Error("IsPinnedSorted = false")
	}
}
