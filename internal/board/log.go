package board

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	logFileName   = "activity.jsonl"
	logFileMode   = 0o600
	maxLogEntries = 10000 // truncate oldest entries when log exceeds this size
)

// LogEntry is one line of the local activity journal.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	BoardID   string    `json:"board_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// AppendLog appends an entry to the activity journal in dir.
// If the journal exceeds maxLogEntries, the oldest entries are truncated.
func AppendLog(dir string, entry LogEntry) error {
	path := filepath.Join(dir, logFileName)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode) //nolint:gosec // journal path from trusted config dir
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling log entry: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing log entry: %w", err)
	}

	_ = truncateLogIfNeeded(path)

	return nil
}

// ReadLog returns the most recent limit entries (all when limit <= 0).
func ReadLog(dir string, limit int) ([]LogEntry, error) {
	f, err := os.Open(filepath.Join(dir, logFileName)) //nolint:gosec // trusted path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading activity log: %w", err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// truncateLogIfNeeded rewrites the journal keeping only the most recent
// maxLogEntries lines.
func truncateLogIfNeeded(path string) error {
	f, err := os.Open(path) //nolint:gosec // trusted path
	if err != nil {
		return err
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	_ = f.Close()

	if err := scanner.Err(); err != nil {
		return err
	}

	if len(lines) <= maxLogEntries {
		return nil
	}

	lines = lines[len(lines)-maxLogEntries:]

	var buf strings.Builder
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	return os.WriteFile(path, []byte(buf.String()), logFileMode)
}

// journal records a successful mutation. Errors are discarded because the
// journal must never fail an operation.
func (s *Synchronizer) journal(action, boardID, taskID, detail string) {
	if s.opts.JournalDir == "" {
		return
	}
	_ = AppendLog(s.opts.JournalDir, LogEntry{
		Timestamp: s.now(),
		Action:    action,
		BoardID:   boardID,
		TaskID:    taskID,
		Detail:    detail,
	})
}
