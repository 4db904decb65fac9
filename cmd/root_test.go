package cmd

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"abc", []string{"abc"}, false},
		{"a, b ,a,,c", []string{"a", "b", "c"}, false},
		{" , ", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseIDs(tt.in)
			if tt.wantErr {
				if !clierr.HasCode(err, clierr.InvalidInput) {
					t.Fatalf("err = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func sampleBoard() board.Board {
	return board.Board{
		ID: "b1", Name: "Work",
		Columns: []board.Column{
			{Status: task.StatusTodo, Tasks: []*task.Task{
				{ID: "abc123", Title: "one", Status: task.StatusTodo},
				{ID: "abd456", Title: "two", Status: task.StatusTodo},
			}},
			{Status: task.StatusDone, Tasks: []*task.Task{
				{ID: "xyz789", Title: "three", Status: task.StatusDone},
			}},
		},
	}
}

func TestResolveTask(t *testing.T) {
	b := sampleBoard()
	tests := []struct {
		arg     string
		wantID  string
		wantPos board.Position
		code    string
	}{
		{"abc123", "abc123", board.Position{Column: task.StatusTodo, Index: 0}, ""},
		{"abd", "abd456", board.Position{Column: task.StatusTodo, Index: 1}, ""},
		{"xyz", "xyz789", board.Position{Column: task.StatusDone, Index: 0}, ""},
		{"ab", "", board.Position{}, clierr.InvalidInput},
		{"nope", "", board.Position{}, clierr.TaskNotFound},
		{" ", "", board.Position{}, clierr.InvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, pos, err := resolveTask(b, tt.arg)
			if tt.code != "" {
				if !clierr.HasCode(err, tt.code) {
					t.Fatalf("err = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.ID != tt.wantID || pos != tt.wantPos {
				t.Errorf("got %s at %+v, want %s at %+v", got.ID, pos, tt.wantID, tt.wantPos)
			}
		})
	}
}

func TestResolveBoard(t *testing.T) {
	state := board.State{
		ActiveID: "b1",
		Active: []board.Board{
			{ID: "b1aa", Name: "Work"},
			{ID: "b1bb", Name: "Home"},
		},
		Archived: []board.Board{
			{ID: "c9", Name: "Old", Archived: true},
		},
	}
	tests := []struct {
		arg    string
		wantID string
		code   string
	}{
		{"b1aa", "b1aa", ""},
		{"b1b", "b1bb", ""},
		{"home", "b1bb", ""},
		{"old", "c9", ""},
		{"b1", "", clierr.InvalidInput},
		{"missing", "", clierr.BoardNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := resolveBoard(state, tt.arg)
			if tt.code != "" {
				if !clierr.HasCode(err, tt.code) {
					t.Fatalf("err = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.ID != tt.wantID {
				t.Errorf("got %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestResolveMoveTarget(t *testing.T) {
	statuses := []string{"todo", "inprogress", "review", "done"}
	newCmd := func(flag string) *cobra.Command {
		c := &cobra.Command{}
		c.Flags().Bool("next", false, "")
		c.Flags().Bool("prev", false, "")
		if flag != "" {
			_ = c.Flags().Set(flag, "true")
		}
		return c
	}

	tests := []struct {
		name    string
		flag    string
		current string
		target  string
		want    string
		code    string
	}{
		{"explicit", "", "todo", "review", "review", ""},
		{"unknown status", "", "todo", "blocked", "", clierr.InvalidStatus},
		{"next", "next", "inprogress", "", "review", ""},
		{"prev", "prev", "review", "", "inprogress", ""},
		{"next at end", "next", "done", "", "", clierr.InvalidStatus},
		{"prev at start", "prev", "todo", "", "", clierr.InvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveMoveTarget(newCmd(tt.flag), statuses, tt.current, tt.target)
			if tt.code != "" {
				if !clierr.HasCode(err, tt.code) {
					t.Fatalf("err = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskToken(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"abc":           "***",
		"eyJhbGciOiJIU": "********iJIU",
	}
	for in, want := range tests {
		if got := maskToken(in); got != want {
			t.Errorf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMoveFailuresOnlyRecordsMoveEvents(t *testing.T) {
	f := &moveFailures{}
	f.Publish(board.Event{Kind: board.EventError, TaskID: "t1", Err: clierr.New(clierr.TransportError, "x")})
	if f.get("t1") != nil {
		t.Fatal("non-move failure recorded")
	}
	f.Publish(board.Event{Kind: board.EventMoveFailed, TaskID: "t1", Err: clierr.New(clierr.TransportError, "x")})
	if !clierr.HasCode(f.get("t1"), clierr.TransportError) {
		t.Fatalf("get = %v", f.get("t1"))
	}
}
