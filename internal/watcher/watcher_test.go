package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherFiresForWatchedFileOnly(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "prefs.yml")
	other := filepath.Join(dir, "other.txt")

	fired := make(chan struct{}, 4)
	w, err := New([]string{watched}, func() { fired <- struct{}{} })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, nil)

	if err := os.WriteFile(other, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
		t.Fatal("callback fired for an unwatched file")
	case <-time.After(3 * debounceDelay):
	}

	if err := os.WriteFile(watched, []byte("active_board: b1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not fire for the watched file")
	}
}
