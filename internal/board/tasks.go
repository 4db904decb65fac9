package board

import (
	"context"
	"strings"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// AddTask creates a task in columnID of the active board. It waits for the
// store and appends the canonical task it returns; on any failure local
// state is untouched. Without a credential no request is made.
func (s *Synchronizer) AddTask(ctx context.Context, columnID string, draft task.Draft) (*task.Task, error) {
	if err := s.requireAuth(s.ActiveBoardID(), ""); err != nil {
		return nil, err
	}
	if err := task.ValidateTitle(draft.Title); err != nil {
		return nil, s.reject(s.ActiveBoardID(), "", err)
	}
	columnID = task.NormalizeStatus(columnID)

	s.mu.Lock()
	bs, ok := s.boards[s.activeID]
	if !ok {
		s.mu.Unlock()
		return nil, s.reject("", "", noActiveBoard())
	}
	boardID := bs.info.ID
	if !bs.hasColumn(columnID) {
		order := append([]string(nil), bs.order...)
		s.mu.Unlock()
		return nil, s.reject(boardID, "", task.ValidateStatus(columnID, order))
	}
	s.mu.Unlock()

	t := &task.Task{
		BoardID:     boardID,
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Due:         draft.Due,
		Status:      columnID,
		Subtasks:    task.CloneSubtasks(draft.Subtasks),
		History:     task.RecordCreated(draft.History, columnID, s.now(), s.opts.Location),
	}
	created, err := s.store.CreateTask(ctx, t)
	if err != nil {
		return nil, s.fail(EventError, boardID, "", "Failed to add task", err)
	}
	created = created.Clone()
	if created.BoardID == "" {
		created.BoardID = boardID
	}
	created.Status = task.NormalizeStatus(created.Status)

	s.mu.Lock()
	if bs, ok := s.boards[boardID]; ok {
		col := bs.columns[created.Status]
		next := make([]*task.Task, 0, len(col)+1)
		next = append(next, col...)
		next = append(next, created)
		SortPinned(next)
		bs.setColumn(created.Status, next)
	}
	s.mu.Unlock()

	s.log.Debug("task added", "board", boardID, "task", created.ID, "status", created.Status)
	s.journal("add", boardID, created.ID, created.Title)
	s.publish(Event{Kind: EventTaskAdded, BoardID: boardID, TaskID: created.ID})
	return created.Clone(), nil
}

// UpdateTask sends the full task to the store and, on success, replaces it
// by ID on whichever board holds it. If the canonical status differs from
// the column holding the task, the task moves to the end of that column.
func (s *Synchronizer) UpdateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	if t == nil || t.ID == "" {
		return nil, s.reject("", "", clierr.New(clierr.ValidationError, "task ID is required"))
	}
	if err := s.requireAuth(t.BoardID, t.ID); err != nil {
		return nil, err
	}
	if err := task.ValidateTitle(t.Title); err != nil {
		return nil, s.reject(t.BoardID, t.ID, err)
	}

	payload := t.Clone()
	payload.Status = task.NormalizeStatus(payload.Status)
	updated, err := s.store.UpdateTask(ctx, payload)
	if err != nil {
		return nil, s.fail(EventError, t.BoardID, t.ID, "Failed to update task", err)
	}
	updated = updated.Clone()
	updated.Status = task.NormalizeStatus(updated.Status)

	s.mu.Lock()
	boardID := s.replaceTask(updated, t.BoardID)
	s.mu.Unlock()

	s.log.Debug("task updated", "board", boardID, "task", updated.ID)
	s.journal("update", boardID, updated.ID, updated.Title)
	s.publish(Event{Kind: EventTaskUpdated, BoardID: boardID, TaskID: updated.ID})
	return updated.Clone(), nil
}

// replaceTask installs updated in place of the task with the same ID.
// hint is tried first. Returns the board that held the task. Caller holds mu.
func (s *Synchronizer) replaceTask(updated *task.Task, hint string) string {
	candidates := []string{hint, s.activeID}
	candidates = append(candidates, s.active...)
	candidates = append(candidates, s.archived...)
	for _, id := range candidates {
		bs, ok := s.boards[id]
		if !ok {
			continue
		}
		pos, ok := bs.locate(updated.ID)
		if !ok {
			continue
		}
		if updated.BoardID == "" {
			updated.BoardID = id
		}
		col := bs.columns[pos.Column]
		if pos.Column == updated.Status {
			next := append([]*task.Task(nil), col...)
			next[pos.Index] = updated
			SortPinned(next)
			bs.setColumn(pos.Column, next)
			return id
		}
		without := make([]*task.Task, 0, len(col)-1)
		without = append(without, col[:pos.Index]...)
		without = append(without, col[pos.Index+1:]...)
		bs.setColumn(pos.Column, without)

		dst := bs.columns[updated.Status]
		next := make([]*task.Task, 0, len(dst)+1)
		next = append(next, dst...)
		next = append(next, updated)
		SortPinned(next)
		bs.setColumn(updated.Status, next)
		return id
	}
	return hint
}

// DeleteTask deletes a task remotely, then removes it from whichever column
// of the active board holds it. An ID that is not on the board leaves the
// columns unchanged.
func (s *Synchronizer) DeleteTask(ctx context.Context, taskID string) error {
	boardID := s.ActiveBoardID()
	if err := s.requireAuth(boardID, taskID); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return s.fail(EventError, boardID, taskID, "Failed to delete task", err)
	}

	s.mu.Lock()
	if bs, ok := s.boards[boardID]; ok {
		if pos, found := bs.locate(taskID); found {
			col := bs.columns[pos.Column]
			next := make([]*task.Task, 0, len(col)-1)
			next = append(next, col[:pos.Index]...)
			next = append(next, col[pos.Index+1:]...)
			bs.setColumn(pos.Column, next)
		}
		if i := task.IndexByID(bs.shelf, taskID); i >= 0 {
			bs.shelf = append(append([]*task.Task(nil), bs.shelf[:i]...), bs.shelf[i+1:]...)
		}
	}
	s.mu.Unlock()

	s.log.Debug("task deleted", "board", boardID, "task", taskID)
	s.journal("delete", boardID, taskID, "")
	s.publish(Event{Kind: EventTaskDeleted, BoardID: boardID, TaskID: taskID})
	return nil
}

// ToggleCompletion flips the completed flag, records the change in the
// task's history and saves it through UpdateTask.
func (s *Synchronizer) ToggleCompletion(ctx context.Context, t *task.Task) (*task.Task, error) {
	if t == nil {
		return nil, s.reject("", "", clierr.New(clierr.ValidationError, "task is required"))
	}
	next := t.Clone()
	task.ToggleCompleted(next, s.now(), s.opts.Location)
	return s.UpdateTask(ctx, next)
}

// TogglePin asks the store to toggle the pinned flag. On success the flag is
// updated in place and the column re-sorted pinned-first.
func (s *Synchronizer) TogglePin(ctx context.Context, taskID string) (*task.Task, error) {
	boardID := s.ActiveBoardID()
	if err := s.requireAuth(boardID, taskID); err != nil {
		return nil, err
	}
	canonical, err := s.store.TogglePin(ctx, taskID)
	if err != nil {
		return nil, s.fail(EventError, boardID, taskID, "Failed to toggle pin", err)
	}

	var result *task.Task
	s.mu.Lock()
	if bs, ok := s.boards[boardID]; ok {
		if pos, found := bs.locate(taskID); found {
			col := bs.columns[pos.Column]
			next := append([]*task.Task(nil), col...)
			pinned := col[pos.Index].Clone()
			pinned.Pinned = canonical.Pinned
			next[pos.Index] = pinned
			SortPinned(next)
			bs.setColumn(pos.Column, next)
			result = pinned.Clone()
		}
	}
	s.mu.Unlock()
	if result == nil {
		result = canonical.Clone()
	}

	s.log.Debug("task pin toggled", "board", boardID, "task", taskID, "pinned", result.Pinned)
	s.journal("pin", boardID, taskID, boolWord(result.Pinned, "pinned", "unpinned"))
	s.publish(Event{Kind: EventTaskUpdated, BoardID: boardID, TaskID: taskID})
	return result, nil
}

// ArchiveTaskLocally moves a task from its column on the active board to
// the board's in-memory archive shelf. Nothing is sent to the store.
func (s *Synchronizer) ArchiveTaskLocally(taskID string) error {
	s.mu.Lock()
	bs, ok := s.boards[s.activeID]
	if !ok {
		s.mu.Unlock()
		return s.reject("", taskID, noActiveBoard())
	}
	boardID := bs.info.ID
	pos, found := bs.locate(taskID)
	if !found {
		s.mu.Unlock()
		return s.reject(boardID, taskID, task.ValidateTaskID(taskID))
	}
	col := bs.columns[pos.Column]
	archived := col[pos.Index]
	next := make([]*task.Task, 0, len(col)-1)
	next = append(next, col[:pos.Index]...)
	next = append(next, col[pos.Index+1:]...)
	bs.setColumn(pos.Column, next)
	bs.shelf = append(append([]*task.Task(nil), bs.shelf...), archived)
	s.mu.Unlock()

	s.publish(Event{Kind: EventTaskArchived, BoardID: boardID, TaskID: taskID})
	return nil
}

func boolWord(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
