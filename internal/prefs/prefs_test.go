package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

type store interface {
	CustomStatuses(string) ([]task.CustomStatus, error)
	SaveCustomStatuses(string, []task.CustomStatus) error
	ActiveBoard() (string, error)
	SetActiveBoard(string) error
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) store{
		"file":   func(t *testing.T) store { return NewFile(filepath.Join(t.TempDir(), "prefs.yml")) },
		"memory": func(*testing.T) store { return NewMemory() },
	}
	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			s := mk(t)

			if id, err := s.ActiveBoard(); err != nil || id != "" {
				t.Fatalf("fresh ActiveBoard = %q, %v", id, err)
			}
			if err := s.SetActiveBoard("b1"); err != nil {
				t.Fatal(err)
			}
			if id, _ := s.ActiveBoard(); id != "b1" {
				t.Errorf("ActiveBoard = %q", id)
			}

			review := []task.CustomStatus{{Name: "review", Icon: "FiEye"}}
			if err := s.SaveCustomStatuses("b1", review); err != nil {
				t.Fatal(err)
			}
			got, err := s.CustomStatuses("b1")
			if err != nil || len(got) != 1 || got[0] != review[0] {
				t.Fatalf("CustomStatuses = %+v, %v", got, err)
			}
			if other, _ := s.CustomStatuses("b2"); len(other) != 0 {
				t.Errorf("statuses leaked to another board: %+v", other)
			}

			got[0].Name = "mutated"
			if again, _ := s.CustomStatuses("b1"); again[0].Name != "review" {
				t.Error("returned slice aliases stored state")
			}

			if err := s.SaveCustomStatuses("b1", nil); err != nil {
				t.Fatal(err)
			}
			if gone, _ := s.CustomStatuses("b1"); len(gone) != 0 {
				t.Errorf("statuses not cleared: %+v", gone)
			}
			if id, _ := s.ActiveBoard(); id != "b1" {
				t.Error("clearing statuses touched the active board")
			}
		})
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yml")
	if err := NewFile(path).SaveCustomStatuses("b1", []task.CustomStatus{{Name: "qa"}}); err != nil {
		t.Fatal(err)
	}
	got, err := NewFile(path).CustomStatuses("b1")
	if err != nil || len(got) != 1 || got[0].Name != "qa" {
		t.Fatalf("reopened store = %+v, %v", got, err)
	}
}

func TestFileRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yml")
	if err := os.WriteFile(path, []byte("custom_statuses: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path).ActiveBoard(); err == nil {
		t.Fatal("expected parse error")
	}
}
