package filelock

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func TestWithSerializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.lock")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := With(path, func() error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("With: %v", err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
}

func TestWithReturnsFnError(t *testing.T) {
	want := errors.New("boom")
	err := With(filepath.Join(t.TempDir(), "x.lock"), func() error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
