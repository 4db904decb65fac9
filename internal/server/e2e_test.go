package server_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/logging"
	"github.com/twiced-technology-gmbh/protodo/internal/prefs"
	"github.com/twiced-technology-gmbh/protodo/internal/remote"
	"github.com/twiced-technology-gmbh/protodo/internal/server"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

func startStack(t *testing.T, withToken bool) (*board.Synchronizer, *remote.Client) {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "e2e.db")
	cfg.Auth.Secret = "end-to-end-secret-0123"

	srv, err := server.New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	var token string
	if withToken {
		token, err = srv.Auth().Mint("e2e@example.com")
		if err != nil {
			t.Fatalf("Mint: %v", err)
		}
	}
	client, err := remote.New(remote.Options{BaseURL: ts.URL + "/api", Token: token, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("remote.New: %v", err)
	}
	opts := board.DefaultOptions()
	opts.Location = time.UTC
	return board.New(client, prefs.NewMemory(), opts), client
}

func TestEndToEnd(t *testing.T) {
	sync, client := startStack(t, true)
	ctx := context.Background()

	if err := sync.LoadBoards(ctx); err != nil {
		t.Fatalf("LoadBoards: %v", err)
	}
	info, err := sync.AddBoard(ctx, "Launch")
	if err != nil {
		t.Fatalf("AddBoard: %v", err)
	}
	if sync.ActiveBoardID() != info.ID {
		t.Fatalf("active = %q, want %q", sync.ActiveBoardID(), info.ID)
	}

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		created, err := sync.AddTask(ctx, task.StatusTodo, task.Draft{
			Title:    title,
			Subtasks: []task.Subtask{{Title: title + " sub", Subtasks: []task.Subtask{{Title: "nested"}}}},
		})
		if err != nil {
			t.Fatalf("AddTask(%s): %v", title, err)
		}
		ids = append(ids, created.ID)
	}

	// Optimistic move, then wait for the background status update.
	if err := sync.MoveTask(ids[1], board.Position{Column: task.StatusTodo, Index: 1},
		&board.Position{Column: task.StatusDone, Index: 0}); err != nil {
		t.Fatalf("MoveTask: %v", err)
	}
	sync.Wait()

	if _, err := sync.TogglePin(ctx, ids[2]); err != nil {
		t.Fatalf("TogglePin: %v", err)
	}

	// A fresh reload from the store must agree with the local view.
	if err := sync.LoadTasks(ctx, info.ID); err != nil {
		t.Fatalf("LoadTasks: %v", err)
	}
	b, _ := sync.Board(info.ID)
	todo, _ := b.Column(task.StatusTodo)
	done, _ := b.Column(task.StatusDone)
	if len(todo.Tasks) != 2 || todo.Tasks[0].ID != ids[2] || todo.Tasks[1].ID != ids[0] {
		t.Errorf("todo after reload = %v", taskIDs(todo.Tasks))
	}
	if len(done.Tasks) != 1 || done.Tasks[0].ID != ids[1] {
		t.Errorf("done after reload = %v", taskIDs(done.Tasks))
	}
	if got := todo.Tasks[1].Subtasks; len(got) != 1 || len(got[0].Subtasks) != 1 {
		t.Errorf("nested subtasks lost: %+v", got)
	}
	if h := todo.Tasks[1].History; len(h) != 1 || h[0].From != task.StatusCreated || h[0].To != task.StatusTodo {
		t.Errorf("history = %+v", h)
	}

	if err := sync.DeleteTask(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	remaining, err := client.ListTasks(ctx, info.ID)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("store holds %d tasks, want 2", len(remaining))
	}

	if err := sync.ArchiveBoard(ctx, info.ID); err != nil {
		t.Fatalf("ArchiveBoard: %v", err)
	}
	if err := sync.RestoreBoard(ctx, info.ID); err != nil {
		t.Fatalf("RestoreBoard: %v", err)
	}
	if err := sync.DeleteBoard(ctx, info.ID); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	boards, err := client.ListBoards(ctx)
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 0 {
		t.Errorf("boards after delete = %+v", boards)
	}
}

func TestEndToEndWithoutToken(t *testing.T) {
	sync, _ := startStack(t, false)
	ctx := context.Background()

	err := sync.LoadBoards(ctx)
	if !clierr.HasCode(err, clierr.AuthRequired) {
		t.Errorf("LoadBoards error = %v, want AUTH_REQUIRED", err)
	}
	if _, err := sync.AddBoard(ctx, "x"); !clierr.HasCode(err, clierr.AuthRequired) {
		t.Errorf("AddBoard error = %v, want AUTH_REQUIRED", err)
	}
}

func taskIDs(tasks []*task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
