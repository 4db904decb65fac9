package board

import (
	"context"
	"strings"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// Statuses returns the column keys of boardID in display order.
func (s *Synchronizer) Statuses(boardID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bs, ok := s.boards[boardID]
	if !ok {
		return nil, boardNotFound(boardID)
	}
	return append([]string(nil), bs.order...), nil
}

// CustomStatuses returns the custom statuses saved for boardID.
func (s *Synchronizer) CustomStatuses(boardID string) []task.CustomStatus {
	return s.customStatuses(boardID)
}

// AddCustomStatus adds a board-scoped column and persists it through the
// preferences port.
func (s *Synchronizer) AddCustomStatus(boardID string, cs task.CustomStatus) error {
	if s.prefs == nil {
		return s.reject(boardID, "", clierr.New(clierr.InternalError, "no preferences store configured"))
	}
	cs.Name = strings.TrimSpace(cs.Name)

	s.mu.Lock()
	bs, ok := s.boards[boardID]
	var existing []string
	if ok {
		existing = append(existing, bs.order...)
	}
	s.mu.Unlock()
	if !ok {
		return s.reject(boardID, "", boardNotFound(boardID))
	}
	if err := task.ValidateCustomStatus(cs, existing); err != nil {
		return s.reject(boardID, "", err)
	}

	saved, err := s.prefs.CustomStatuses(boardID)
	if err != nil {
		return s.reject(boardID, "", clierr.Wrap(clierr.InternalError, err, "reading custom statuses: "+err.Error()))
	}
	if err := s.prefs.SaveCustomStatuses(boardID, append(saved, cs)); err != nil {
		return s.reject(boardID, "", clierr.Wrap(clierr.InternalError, err, "saving custom statuses: "+err.Error()))
	}

	s.mu.Lock()
	if bs, ok := s.boards[boardID]; ok && !bs.hasColumn(cs.Name) {
		bs.setColumn(cs.Name, []*task.Task{})
	}
	s.mu.Unlock()

	s.journal("status add", boardID, "", cs.Name)
	s.publish(Event{Kind: EventStatusesChanged, BoardID: boardID})
	return nil
}

// RemoveCustomStatus deletes a custom column. Its tasks are moved to the
// end of todo, in the store first, so a later reload does not bring the
// column back. A failed store update leaves the column in place.
func (s *Synchronizer) RemoveCustomStatus(ctx context.Context, boardID, name string) error {
	if s.prefs == nil {
		return s.reject(boardID, "", clierr.New(clierr.InternalError, "no preferences store configured"))
	}
	if containsStr(s.opts.BaseStatuses, name) {
		return s.reject(boardID, "", clierr.Newf(clierr.ValidationError, "%q is a base status and cannot be removed", name))
	}
	saved, err := s.prefs.CustomStatuses(boardID)
	if err != nil {
		return s.reject(boardID, "", clierr.Wrap(clierr.InternalError, err, "reading custom statuses: "+err.Error()))
	}
	kept := make([]task.CustomStatus, 0, len(saved))
	for _, cs := range saved {
		if cs.Name != name {
			kept = append(kept, cs)
		}
	}
	if len(kept) == len(saved) {
		names := make([]string, len(saved))
		for i, cs := range saved {
			names[i] = cs.Name
		}
		return s.reject(boardID, "", task.ValidateStatus(name, names))
	}

	var orphans []string
	s.mu.Lock()
	if bs, ok := s.boards[boardID]; ok {
		for _, t := range bs.columns[name] {
			orphans = append(orphans, t.ID)
		}
	}
	s.mu.Unlock()

	if len(orphans) > 0 {
		if err := s.requireAuth(boardID, ""); err != nil {
			return err
		}
	}
	moved := make([]string, 0, len(orphans))
	for _, id := range orphans {
		if err := s.store.UpdateStatus(ctx, id, task.StatusTodo); err != nil {
			s.rehome(boardID, name, moved)
			return s.fail(EventMoveFailed, boardID, id, moveFailedMessage, err)
		}
		moved = append(moved, id)
	}

	if err := s.prefs.SaveCustomStatuses(boardID, kept); err != nil {
		s.rehome(boardID, name, moved)
		return s.reject(boardID, "", clierr.Wrap(clierr.InternalError, err, "saving custom statuses: "+err.Error()))
	}

	s.mu.Lock()
	if bs, ok := s.boards[boardID]; ok && bs.hasColumn(name) {
		bs.appendTodo(bs.columns[name])
		delete(bs.columns, name)
		bs.rev[name]++
		bs.order = removeStr(bs.order, name)
	}
	s.mu.Unlock()

	s.journal("status remove", boardID, "", name)
	s.publish(Event{Kind: EventStatusesChanged, BoardID: boardID})
	return nil
}

// rehome moves the tasks ids of column name to todo in the local view.
func (s *Synchronizer) rehome(boardID, name string, ids []string) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bs, ok := s.boards[boardID]
	if !ok {
		return
	}
	var moving, staying []*task.Task
	for _, t := range bs.columns[name] {
		if containsStr(ids, t.ID) {
			moving = append(moving, t)
		} else {
			staying = append(staying, t)
		}
	}
	if len(moving) == 0 {
		return
	}
	if staying == nil {
		staying = []*task.Task{}
	}
	bs.setColumn(name, staying)
	bs.appendTodo(moving)
}

// appendTodo appends clones of moving to the end of todo.
func (bs *boardState) appendTodo(moving []*task.Task) {
	if len(moving) == 0 {
		return
	}
	todo := bs.columns[task.StatusTodo]
	next := make([]*task.Task, 0, len(todo)+len(moving))
	next = append(next, todo...)
	for _, t := range moving {
		c := t.Clone()
		c.Status = task.StatusTodo
		next = append(next, c)
	}
	SortPinned(next)
	bs.setColumn(task.StatusTodo, next)
}
