package board

import (
	"context"
	"strings"

	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// AddBoard creates a board with the base columns and makes it active.
func (s *Synchronizer) AddBoard(ctx context.Context, name string) (Info, error) {
	if err := task.ValidateBoardName(name); err != nil {
		return Info{}, s.reject("", "", err)
	}
	if err := s.requireAuth("", ""); err != nil {
		return Info{}, err
	}
	info, err := s.store.CreateBoard(ctx, strings.TrimSpace(name))
	if err != nil {
		return Info{}, s.fail(EventError, "", "", "Failed to create board", err)
	}
	info.Archived = false
	custom := s.customStatuses(info.ID)

	s.mu.Lock()
	bs := newBoardState(info, columnOrder(s.opts.BaseStatuses, custom))
	bs.loaded = true
	s.boards[info.ID] = bs
	s.active = append(append([]string(nil), s.active...), info.ID)
	s.activeID = info.ID
	s.mu.Unlock()

	s.persistActiveBoard(info.ID)
	s.log.Debug("board added", "board", info.ID, "name", info.Name)
	s.journal("board add", info.ID, "", info.Name)
	s.publish(Event{Kind: EventBoardChanged, BoardID: info.ID})
	return info, nil
}

// ArchiveBoard soft-deletes an active board. If it was the active board the
// next active board in order takes over, else the previous one, else none.
func (s *Synchronizer) ArchiveBoard(ctx context.Context, id string) error {
	s.mu.Lock()
	ok := containsStr(s.active, id)
	s.mu.Unlock()
	if !ok {
		return s.reject(id, "", boardNotFound(id))
	}
	if err := s.requireAuth(id, ""); err != nil {
		return err
	}
	info, err := s.store.ArchiveBoard(ctx, id)
	if err != nil {
		return s.fail(EventError, id, "", "Failed to archive board", err)
	}

	s.mu.Lock()
	bs, ok := s.boards[id]
	if ok {
		bs.info.Archived = true
		if info.Name != "" {
			bs.info.Name = info.Name
		}
		s.active, s.activeID = s.dropActive(id)
		s.archived = append(append([]string(nil), s.archived...), id)
	}
	next := s.activeID
	s.mu.Unlock()

	s.persistActiveBoard(next)
	s.journal("board archive", id, "", "")
	s.publish(Event{Kind: EventBoardChanged, BoardID: id})
	return nil
}

// RestoreBoard moves an archived board back to the active set. It becomes
// the active board when none is active.
func (s *Synchronizer) RestoreBoard(ctx context.Context, id string) error {
	s.mu.Lock()
	ok := containsStr(s.archived, id)
	s.mu.Unlock()
	if !ok {
		return s.reject(id, "", boardNotFound(id))
	}
	if err := s.requireAuth(id, ""); err != nil {
		return err
	}
	info, err := s.store.RestoreBoard(ctx, id)
	if err != nil {
		return s.fail(EventError, id, "", "Failed to restore board", err)
	}

	s.mu.Lock()
	becameActive := false
	if bs, ok := s.boards[id]; ok {
		bs.info.Archived = false
		if info.Name != "" {
			bs.info.Name = info.Name
		}
		s.archived = removeStr(s.archived, id)
		s.active = append(append([]string(nil), s.active...), id)
		if s.activeID == "" {
			s.activeID = id
			becameActive = true
		}
	}
	s.mu.Unlock()

	if becameActive {
		s.persistActiveBoard(id)
	}
	s.journal("board restore", id, "", "")
	s.publish(Event{Kind: EventBoardChanged, BoardID: id})
	return nil
}

// DeleteBoard permanently deletes a board from either set.
func (s *Synchronizer) DeleteBoard(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.boards[id]
	s.mu.Unlock()
	if !ok {
		return s.reject(id, "", boardNotFound(id))
	}
	if err := s.requireAuth(id, ""); err != nil {
		return err
	}
	if err := s.store.DeleteBoard(ctx, id); err != nil {
		return s.fail(EventError, id, "", "Failed to delete board", err)
	}

	s.mu.Lock()
	wasActive := s.activeID == id
	delete(s.boards, id)
	s.active, s.activeID = s.dropActive(id)
	s.archived = removeStr(s.archived, id)
	next := s.activeID
	s.mu.Unlock()

	if wasActive {
		s.persistActiveBoard(next)
	}
	s.journal("board delete", id, "", "")
	s.publish(Event{Kind: EventBoardChanged, BoardID: id})
	return nil
}

// SetActiveBoard selects an active (non-archived) board.
func (s *Synchronizer) SetActiveBoard(id string) error {
	s.mu.Lock()
	if !containsStr(s.active, id) {
		s.mu.Unlock()
		return s.reject(id, "", boardNotFound(id))
	}
	s.activeID = id
	s.mu.Unlock()

	s.persistActiveBoard(id)
	s.publish(Event{Kind: EventActiveChanged, BoardID: id})
	return nil
}

// dropActive removes id from the active list and picks the successor for
// the active board. Caller holds mu.
func (s *Synchronizer) dropActive(id string) ([]string, string) {
	idx := -1
	for i, a := range s.active {
		if a == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s.active, s.activeID
	}
	rest := removeStr(s.active, id)
	if s.activeID != id {
		return rest, s.activeID
	}
	switch {
	case idx < len(rest):
		return rest, rest[idx]
	case len(rest) > 0:
		return rest, rest[len(rest)-1]
	default:
		return rest, ""
	}
}

func removeStr(slice []string, item string) []string {
	out := make([]string, 0, len(slice))
	for _, s := range slice {
		if s != item {
			out = append(out, s)
		}
	}
	return out
}
