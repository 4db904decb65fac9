package board

import (
	"context"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

const moveFailedMessage = "Failed to update task position"

// pendingMove is what a failed persist needs to undo a move.
type pendingMove struct {
	bs               *boardState
	boardID          string
	taskID           string
	src, dst         string
	srcPrev, dstPrev []*task.Task
	srcRev, dstRev   uint64
}

// MoveTask relocates a task on the active board without waiting for the
// store. The task is removed from src and inserted at dst (index clamped),
// its status set to dst.Column, and the destination column re-sorted
// pinned-first. A nil dst is a cancelled drag and does nothing; so does a
// move to the same column and index.
//
// When the column changes, the new status is persisted in the background.
// A failed persist publishes EventMoveFailed and, if RollbackOnMoveFailure
// is set, restores both columns unless either changed since the move.
func (s *Synchronizer) MoveTask(taskID string, src Position, dst *Position) error {
	if dst == nil {
		return nil
	}
	if src.Column == dst.Column && src.Index == dst.Index {
		return nil
	}

	s.mu.Lock()
	bs, ok := s.boards[s.activeID]
	if !ok {
		s.mu.Unlock()
		return s.reject("", taskID, noActiveBoard())
	}
	boardID := bs.info.ID

	srcList, ok := bs.columns[src.Column]
	if !ok || src.Index < 0 || src.Index >= len(srcList) || srcList[src.Index].ID != taskID {
		s.mu.Unlock()
		return s.reject(boardID, taskID, clierr.Newf(clierr.ValidationError,
			"task %s is not at %s[%d]", taskID, src.Column, src.Index).
			WithDetails(map[string]any{"id": taskID, "column": src.Column, "index": src.Index}))
	}
	dstList, ok := bs.columns[dst.Column]
	if !ok {
		s.mu.Unlock()
		return s.reject(boardID, taskID, task.ValidateStatus(dst.Column, bs.order))
	}

	moved := srcList[src.Index].Clone()
	moved.Status = dst.Column

	pm := pendingMove{
		bs:      bs,
		boardID: boardID,
		taskID:  taskID,
		src:     src.Column,
		dst:     dst.Column,
		srcPrev: srcList,
		dstPrev: dstList,
	}

	newSrc := make([]*task.Task, 0, len(srcList)-1)
	newSrc = append(newSrc, srcList[:src.Index]...)
	newSrc = append(newSrc, srcList[src.Index+1:]...)

	if src.Column == dst.Column {
		bs.setColumn(src.Column, insertAt(newSrc, moved, dst.Index))
	} else {
		bs.setColumn(src.Column, newSrc)
		bs.setColumn(dst.Column, insertAt(dstList, moved, dst.Index))
	}
	pm.srcRev, pm.dstRev = bs.rev[src.Column], bs.rev[dst.Column]
	s.mu.Unlock()

	s.log.Debug("task moved", "board", boardID, "task", taskID, "from", src.Column, "to", dst.Column, "index", dst.Index)
	s.publish(Event{Kind: EventTaskMoved, BoardID: boardID, TaskID: taskID})

	if src.Column == dst.Column {
		return nil
	}

	s.inflight.Add(1)
	go s.persistMove(pm)
	return nil
}

func (s *Synchronizer) persistMove(pm pendingMove) {
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
	defer cancel()

	err := s.store.UpdateStatus(ctx, pm.taskID, pm.dst)
	if err == nil {
		s.journal("move", pm.boardID, pm.taskID, pm.src+" -> "+pm.dst)
		return
	}

	rolledBack := false
	if s.opts.RollbackOnMoveFailure {
		rolledBack = s.rollback(pm)
	}
	if clierr.CodeOf(err) == "" {
		err = clierr.Wrap(clierr.TransportError, err, moveFailedMessage+": "+err.Error())
	}
	s.log.Warn(moveFailedMessage, "board", pm.boardID, "task", pm.taskID, "rolled_back", rolledBack, "err", err)
	s.publish(Event{
		Kind:       EventMoveFailed,
		BoardID:    pm.boardID,
		TaskID:     pm.taskID,
		Message:    moveFailedMessage,
		Err:        err,
		RolledBack: rolledBack,
	})
}

// rollback reinstalls the pre-move columns if nothing touched them since.
// A board dropped and loaded again is a new state and never matches.
func (s *Synchronizer) rollback(pm pendingMove) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	bs, ok := s.boards[pm.boardID]
	if !ok || bs != pm.bs || bs.rev[pm.src] != pm.srcRev || bs.rev[pm.dst] != pm.dstRev {
		return false
	}
	bs.setColumn(pm.src, pm.srcPrev)
	bs.setColumn(pm.dst, pm.dstPrev)
	return true
}

// insertAt returns a new slice with t inserted at index (clamped) and the
// result pinned-sorted.
func insertAt(list []*task.Task, t *task.Task, index int) []*task.Task {
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}
	out := make([]*task.Task, 0, len(list)+1)
	out = append(out, list[:index]...)
	out = append(out, t)
	out = append(out, list[index:]...)
	SortPinned(out)
	return out
}
