package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

var moveCmd = &cobra.Command{
	Use:   "move ID[,ID,...] [STATUS]",
	Short: "Move a task to a different column",
	Long: `Moves tasks of the active board to another column. Provide the status
directly, or use --next/--prev to move along the board's column order.
Multiple IDs can be provided as a comma-separated list.

The move is applied locally first, then persisted. If the store rejects it
the command fails and the task stays where it was.`,
	Args: cobra.RangeArgs(1, 2), //nolint:mnd // 1 or 2 positional args
	RunE: runMove,
}

func init() {
	moveCmd.Flags().Bool("next", false, "move to next column")
	moveCmd.Flags().Bool("prev", false, "move to previous column")
	moveCmd.Flags().Int("index", -1, "position in the destination column (default: end)")
	rootCmd.AddCommand(moveCmd)
}

// moveResult wraps a task with a changed flag for JSON output.
type moveResult struct {
	*task.Task
	Changed bool `json:"changed"`
}

// moveFailures collects persist failures published by the synchronizer's
// background goroutine.
type moveFailures struct {
	mu   sync.Mutex
	errs map[string]error
}

func (f *moveFailures) Publish(e board.Event) {
	if e.Kind != board.EventMoveFailed {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	f.errs[e.TaskID] = e.Err
}

func (f *moveFailures) get(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[id]
}

func runMove(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}
	target := ""
	if len(args) > 1 {
		target = args[1]
	}
	if err := validateMoveArgs(cmd, target); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	failures := &moveFailures{}
	s, err := newSession(cfg, newLogger(cfg), failures)
	if err != nil {
		return err
	}
	if _, err := s.activeBoard(cmd.Context()); err != nil {
		return err
	}

	if len(ids) == 1 {
		res, from, err := executeMove(cmd, s, failures, ids[0], target)
		if err != nil {
			return err
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, res)
		}
		if !res.Changed {
			output.Messagef(os.Stdout, "Task %s is already in %s", output.ShortID(res.ID), res.Status)
			return nil
		}
		output.Messagef(os.Stdout, "Moved task %s: %s -> %s", output.ShortID(res.ID), from, res.Status)
		return nil
	}

	return runBatch(ids, func(id string) error {
		_, _, err := executeMove(cmd, s, failures, id, target)
		return err
	})
}

func validateMoveArgs(cmd *cobra.Command, target string) error {
	next, _ := cmd.Flags().GetBool("next")
	prev, _ := cmd.Flags().GetBool("prev")
	set := 0
	for _, v := range []bool{next, prev, target != ""} {
		if v {
			set++
		}
	}
	switch set {
	case 0:
		return clierr.New(clierr.InvalidInput, "provide a target status or use --next/--prev")
	case 1:
		return nil
	default:
		return clierr.New(clierr.InvalidInput, "target status, --next and --prev are mutually exclusive")
	}
}

// executeMove moves one task and waits for the persist to settle. It
// returns the task's column before the move.
func executeMove(cmd *cobra.Command, s *session, failures *moveFailures, id, target string) (moveResult, string, error) {
	b, ok := s.sync.Board(s.sync.ActiveBoardID())
	if !ok {
		return moveResult{}, "", clierr.New(clierr.BoardNotFound, "no active board")
	}
	t, src, err := resolveTask(b, id)
	if err != nil {
		return moveResult{}, "", err
	}

	dstStatus, err := resolveMoveTarget(cmd, b.Statuses(), src.Column, target)
	if err != nil {
		return moveResult{}, "", err
	}
	if dstStatus == src.Column {
		return moveResult{Task: t, Changed: false}, src.Column, nil
	}

	dst := board.Position{Column: dstStatus, Index: -1}
	if col, ok := b.Column(dstStatus); ok {
		dst.Index = len(col.Tasks)
	}
	if idx, _ := cmd.Flags().GetInt("index"); idx >= 0 {
		dst.Index = idx
	}

	if err := s.sync.MoveTask(t.ID, src, &dst); err != nil {
		return moveResult{}, "", err
	}
	s.sync.Wait()
	if err := failures.get(t.ID); err != nil {
		return moveResult{}, "", err
	}

	moved, _, ok := s.sync.Find(t.ID)
	if !ok {
		return moveResult{}, "", fmt.Errorf("task %s vanished after move", t.ID)
	}
	return moveResult{Task: moved, Changed: true}, src.Column, nil
}

// resolveMoveTarget returns the destination status from the positional
// argument or from --next/--prev relative to current.
func resolveMoveTarget(cmd *cobra.Command, statuses []string, current, target string) (string, error) {
	if target != "" {
		if err := task.ValidateStatus(target, statuses); err != nil {
			return "", err
		}
		return target, nil
	}

	idx := -1
	for i, st := range statuses {
		if st == current {
			idx = i
			break
		}
	}
	if next, _ := cmd.Flags().GetBool("next"); next {
		if idx < 0 || idx >= len(statuses)-1 {
			return "", clierr.Newf(clierr.InvalidStatus, "task is already in the last column (%s)", current)
		}
		return statuses[idx+1], nil
	}
	if idx <= 0 {
		return "", clierr.Newf(clierr.InvalidStatus, "task is already in the first column (%s)", current)
	}
	return statuses[idx-1], nil
}
