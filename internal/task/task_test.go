package task

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
)

var fixedNow = time.Date(2025, time.March, 4, 17, 5, 9, 0, time.UTC)

func TestCloneIsDeep(t *testing.T) {
	due := fixedNow
	orig := &Task{
		ID:       "t1",
		Title:    "write report",
		Due:      &due,
		Subtasks: []Subtask{{Title: "outline", Subtasks: []Subtask{{Title: "intro"}}}},
		History:  []Transition{{From: StatusCreated, To: StatusTodo}},
	}

	c := orig.Clone()
	c.Subtasks[0].Subtasks[0].Title = "changed"
	c.History[0].To = StatusDone
	*c.Due = c.Due.Add(time.Hour)

	if orig.Subtasks[0].Subtasks[0].Title != "intro" {
		t.Error("nested subtask shared with clone")
	}
	if orig.History[0].To != StatusTodo {
		t.Error("history shared with clone")
	}
	if !orig.Due.Equal(fixedNow) {
		t.Error("due date shared with clone")
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := map[string]string{"": StatusTodo, "  ": StatusTodo, "done": "done", "review": "review"}
	for in, want := range tests {
		if got := NormalizeStatus(in); got != want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToggleCompletedRecordsHistory(t *testing.T) {
	tk := &Task{ID: "t1", Status: StatusTodo}

	ToggleCompleted(tk, fixedNow, time.UTC)
	if !tk.Completed {
		t.Fatal("expected completed")
	}
	ToggleCompleted(tk, fixedNow, time.UTC)
	if tk.Completed {
		t.Fatal("expected incomplete after second toggle")
	}

	want := []Transition{
		{From: LabelIncomplete, To: LabelCompleted, Time: "3/4/2025, 5:05:09 PM", TZ: "UTC"},
		{From: LabelCompleted, To: LabelIncomplete, Time: "3/4/2025, 5:05:09 PM", TZ: "UTC"},
	}
	if len(tk.History) != len(want) {
		t.Fatalf("history len = %d, want %d", len(tk.History), len(want))
	}
	for i := range want {
		if tk.History[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, tk.History[i], want[i])
		}
	}
}

func TestChangeStatus(t *testing.T) {
	tk := &Task{Status: ""}
	ChangeStatus(tk, StatusTodo, fixedNow, time.UTC)
	if len(tk.History) != 0 {
		t.Fatal("empty status is todo; no transition expected")
	}
	ChangeStatus(tk, StatusDone, fixedNow, time.UTC)
	if tk.Status != StatusDone || len(tk.History) != 1 || tk.History[0].From != StatusTodo {
		t.Fatalf("unexpected task after change: %+v", tk)
	}
}

func TestRecordCreated(t *testing.T) {
	h := RecordCreated(nil, "", fixedNow, time.UTC)
	if len(h) != 1 || h[0].From != StatusCreated || h[0].To != StatusTodo {
		t.Fatalf("RecordCreated = %+v", h)
	}
}

func TestValidate(t *testing.T) {
	if err := ValidateTitle("   "); !clierr.HasCode(err, clierr.ValidationError) {
		t.Errorf("blank title: got %v", err)
	}
	if err := ValidateTitle("ok"); err != nil {
		t.Errorf("valid title: %v", err)
	}
	if err := ValidateBoardName(""); !clierr.HasCode(err, clierr.ValidationError) {
		t.Errorf("blank board name: got %v", err)
	}
	if err := ValidateStatus("review", BaseStatuses()); !clierr.HasCode(err, clierr.InvalidStatus) {
		t.Errorf("unknown status: got %v", err)
	}
	if err := ValidateCustomStatus(CustomStatus{Name: "todo"}, BaseStatuses()); err == nil {
		t.Error("duplicate custom status accepted")
	}
}

func TestCountSubtasks(t *testing.T) {
	subs := []Subtask{
		{Title: "a", Completed: true, Subtasks: []Subtask{{Title: "a1"}, {Title: "a2", Completed: true}}},
		{Title: "b"},
	}
	done, total := CountSubtasks(subs)
	if done != 2 || total != 4 {
		t.Errorf("CountSubtasks = %d/%d, want 2/4", done, total)
	}
}

func TestFileRoundTrip(t *testing.T) {
	due := fixedNow
	orig := &Task{
		ID:          "abc123",
		BoardID:     "b1",
		Title:       "Ship it",
		Description: "## Notes\n\nremember the changelog",
		Due:         &due,
		Status:      StatusInProgress,
		Pinned:      true,
		Subtasks:    []Subtask{{Title: "tag release", Completed: true}},
		History:     []Transition{{From: StatusCreated, To: StatusInProgress, Time: "x", TZ: "UTC"}},
	}
	path := filepath.Join(t.TempDir(), Filename(orig))
	if err := Write(path, orig); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Title != orig.Title || got.Description != orig.Description || got.Status != orig.Status {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Pinned || len(got.Subtasks) != 1 || !got.Subtasks[0].Completed || len(got.History) != 1 {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Due == nil || !got.Due.Equal(due) {
		t.Errorf("due = %v, want %v", got.Due, due)
	}
}

func TestUnmarshalRejectsMissingFrontmatter(t *testing.T) {
	if _, err := Unmarshal([]byte("just text")); err == nil {
		t.Error("expected error")
	}
	if _, err := Unmarshal([]byte("---\ntitle: x\n")); err == nil {
		t.Error("expected error for unclosed frontmatter")
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		task Task
		want string
	}{
		{Task{ID: "0123456789", Title: "Fix the Build!"}, "fix-the-build-01234567.md"},
		{Task{Title: "Plain"}, "plain.md"},
		{Task{ID: "ab"}, "ab.md"},
		{Task{}, "task.md"},
	}
	for _, tt := range tests {
		if got := Filename(&tt.task); got != tt.want {
			t.Errorf("Filename(%+v) = %q, want %q", tt.task, got, tt.want)
		}
	}
}
