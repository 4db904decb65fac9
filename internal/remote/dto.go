package remote

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/date"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// flexID decodes an identifier sent either as a JSON string or a number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func firstID(ids ...flexID) string {
	for _, id := range ids {
		if id != "" {
			return string(id)
		}
	}
	return ""
}

type boardDTO struct {
	MongoID  flexID `json:"_id"`
	ID       flexID `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

func (d boardDTO) info() board.Info {
	return board.Info{ID: firstID(d.MongoID, d.ID), Name: d.Name, Archived: d.Archived}
}

type subtaskDTO struct {
	MongoID   flexID       `json:"_id"`
	ID        flexID       `json:"id"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Completed bool         `json:"completed"`
	Done      bool         `json:"done"`
	Subtasks  []subtaskDTO `json:"subtasks"`
}

func (d subtaskDTO) subtask() task.Subtask {
	title := d.Title
	if title == "" {
		title = d.Text
	}
	return task.Subtask{
		ID:        firstID(d.MongoID, d.ID),
		Title:     title,
		Completed: d.Completed || d.Done,
		Subtasks:  subtasksFromDTO(d.Subtasks),
	}
}

func subtasksFromDTO(in []subtaskDTO) []task.Subtask {
	if len(in) == 0 {
		return nil
	}
	out := make([]task.Subtask, len(in))
	for i, d := range in {
		out[i] = d.subtask()
	}
	return out
}

// historyDTO tolerates both the canonical field names and the ones older
// web clients wrote.
type historyDTO struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Time     string `json:"time"`
	Date     string `json:"date"`
	TZ       string `json:"tz"`
	Timezone string `json:"timezone"`
}

// taskDTO is the union of the field spellings the store has used.
type taskDTO struct {
	MongoID     flexID       `json:"_id"`
	ID          flexID       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Desc        string       `json:"desc"`
	Date        string       `json:"date"`
	Due         string       `json:"due"`
	Status      string       `json:"status"`
	Board       flexID       `json:"board"`
	BoardID     flexID       `json:"boardId"`
	Completed   bool         `json:"completed"`
	Pinned      bool         `json:"pinned"`
	Subtasks    []subtaskDTO `json:"subtasks"`
	History     []historyDTO `json:"history"`
}

func (d taskDTO) task() *task.Task {
	t := &task.Task{
		ID:          firstID(d.MongoID, d.ID),
		BoardID:     firstID(d.Board, d.BoardID),
		Title:       d.Title,
		Description: d.Description,
		Status:      task.NormalizeStatus(d.Status),
		Completed:   d.Completed,
		Pinned:      d.Pinned,
		Subtasks:    subtasksFromDTO(d.Subtasks),
	}
	if t.Description == "" {
		t.Description = d.Desc
	}
	raw := d.Date
	if raw == "" {
		raw = d.Due
	}
	if due, ok := parseDue(raw); ok {
		t.Due = &due
	}
	for _, h := range d.History {
		tr := task.Transition{From: h.From, To: h.To, Time: h.Time, TZ: h.TZ}
		if tr.Time == "" {
			tr.Time = h.Date
		}
		if tr.TZ == "" {
			tr.TZ = h.Timezone
		}
		t.History = append(t.History, tr)
	}
	return t
}

// parseDue accepts the date shapes browsers and the reference store send.
// Unparseable or empty values are treated as no due date.
func parseDue(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := date.Parse(raw, time.UTC); err == nil {
		return t, true
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// taskBody is the request payload for create and update.
type taskBody struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Date        *string           `json:"date"`
	Status      string            `json:"status"`
	Board       string            `json:"board,omitempty"`
	Completed   bool              `json:"completed"`
	Pinned      bool              `json:"pinned"`
	Subtasks    []task.Subtask    `json:"subtasks"`
	History     []task.Transition `json:"history,omitempty"`
}

func newTaskBody(t *task.Task) taskBody {
	b := taskBody{
		Title:       t.Title,
		Description: t.Description,
		Status:      task.NormalizeStatus(t.Status),
		Board:       t.BoardID,
		Completed:   t.Completed,
		Pinned:      t.Pinned,
		Subtasks:    task.CloneSubtasks(t.Subtasks),
		History:     append([]task.Transition(nil), t.History...),
	}
	if b.Subtasks == nil {
		b.Subtasks = []task.Subtask{}
	}
	if t.Due != nil {
		s := t.Due.UTC().Format(time.RFC3339)
		b.Date = &s
	}
	return b
}

// errorBody covers the error envelopes seen from the store.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}
