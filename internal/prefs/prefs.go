// Package prefs stores per-user board preferences that never travel to the
// task store: the active board and each board's custom statuses.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/protodo/internal/filelock"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

const fileMode = 0o600

// document is the on-disk shape of the preferences file.
type document struct {
	ActiveBoard    string                         `yaml:"active_board,omitempty"`
	CustomStatuses map[string][]task.CustomStatus `yaml:"custom_statuses,omitempty"`
}

// File is a YAML-backed preferences store. Writes are serialized across
// processes with an advisory lock on a sibling .lock file.
type File struct {
	path string
}

// NewFile returns a store backed by the file at path. The file is created
// on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the preferences file location.
func (f *File) Path() string { return f.path }

// CustomStatuses returns the custom statuses saved for boardID.
func (f *File) CustomStatuses(boardID string) ([]task.CustomStatus, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return append([]task.CustomStatus(nil), doc.CustomStatuses[boardID]...), nil
}

// SaveCustomStatuses replaces the custom statuses of boardID. An empty list
// removes the board's entry.
func (f *File) SaveCustomStatuses(boardID string, statuses []task.CustomStatus) error {
	return f.update(func(doc *document) {
		if len(statuses) == 0 {
			delete(doc.CustomStatuses, boardID)
			return
		}
		if doc.CustomStatuses == nil {
			doc.CustomStatuses = make(map[string][]task.CustomStatus)
		}
		doc.CustomStatuses[boardID] = append([]task.CustomStatus(nil), statuses...)
	})
}

// ActiveBoard returns the last active board ID, or "".
func (f *File) ActiveBoard() (string, error) {
	doc, err := f.read()
	if err != nil {
		return "", err
	}
	return doc.ActiveBoard, nil
}

// SetActiveBoard records id as the active board.
func (f *File) SetActiveBoard(id string) error {
	return f.update(func(doc *document) { doc.ActiveBoard = id })
}

func (f *File) read() (*document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{}, nil
		}
		return nil, fmt.Errorf("reading prefs: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing prefs %s: %w", f.path, err)
	}
	return &doc, nil
}

func (f *File) update(fn func(*document)) error {
	return filelock.With(f.path+".lock", func() error {
		doc, err := f.read()
		if err != nil {
			return err
		}
		fn(doc)
		return f.write(doc)
	})
}

// write replaces the file atomically so watchers never see a partial document.
func (f *File) write(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling prefs: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".prefs-*.yml")
	if err != nil {
		return fmt.Errorf("writing prefs: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing prefs: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing prefs: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

// Memory is an in-process preferences store for tests and embedding.
type Memory struct {
	mu       sync.Mutex
	active   string
	statuses map[string][]task.CustomStatus
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{statuses: make(map[string][]task.CustomStatus)}
}

// CustomStatuses returns the custom statuses saved for boardID.
func (m *Memory) CustomStatuses(boardID string) ([]task.CustomStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.CustomStatus(nil), m.statuses[boardID]...), nil
}

// SaveCustomStatuses replaces the custom statuses of boardID.
func (m *Memory) SaveCustomStatuses(boardID string, statuses []task.CustomStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(statuses) == 0 {
		delete(m.statuses, boardID)
		return nil
	}
	m.statuses[boardID] = append([]task.CustomStatus(nil), statuses...)
	return nil
}

// ActiveBoard returns the last active board ID.
func (m *Memory) ActiveBoard() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, nil
}

// SetActiveBoard records id as the active board.
func (m *Memory) SetActiveBoard(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = id
	return nil
}
