package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/date"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

var editCmd = &cobra.Command{
	Use:   "edit ID[,ID,...]",
	Short: "Edit a task",
	Long: `Modifies fields of tasks on the active board. Only specified fields are
changed. Multiple IDs can be provided as a comma-separated list.

Changing --status moves the task to the end of that column and records the
transition in its history.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().String("status", "", "new status")
	editCmd.Flags().String("description", "", "new description (replaces the existing one)")
	editCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "body" {
			name = "description"
		}
		return pflag.NormalizedName(name)
	})
	editCmd.Flags().String("due", "", "new due date (YYYY-MM-DD)")
	editCmd.Flags().Bool("clear-due", false, "clear due date")
	editCmd.Flags().StringArray("add-subtask", nil, "append a subtask (repeatable)")
	editCmd.Flags().IntSlice("toggle-subtask", nil, "toggle completion of top-level subtasks by 1-based number")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	if _, err := s.activeBoard(cmd.Context()); err != nil {
		return err
	}

	if len(ids) == 1 {
		t, err := executeEdit(cmd, s, ids[0])
		if err != nil {
			return err
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, t)
		}
		output.Messagef(os.Stdout, "Updated task %s: %s", output.ShortID(t.ID), t.Title)
		return nil
	}

	return runBatch(ids, func(id string) error {
		_, err := executeEdit(cmd, s, id)
		return err
	})
}

// executeEdit applies the flags to a copy of the task and saves it.
func executeEdit(cmd *cobra.Command, s *session, id string) (*task.Task, error) {
	b, ok := s.sync.Board(s.sync.ActiveBoardID())
	if !ok {
		return nil, clierr.New(clierr.BoardNotFound, "no active board")
	}
	current, _, err := resolveTask(b, id)
	if err != nil {
		return nil, err
	}

	t := current.Clone()
	changed, err := applyEditChanges(cmd, t, b, s.cfg.Location())
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, clierr.New(clierr.NoChanges, "no changes specified")
	}
	return s.sync.UpdateTask(cmd.Context(), t)
}

func applyEditChanges(cmd *cobra.Command, t *task.Task, b board.Board, loc *time.Location) (bool, error) {
	changed := false

	if v, _ := cmd.Flags().GetString("title"); v != "" {
		if err := task.ValidateTitle(v); err != nil {
			return false, err
		}
		t.Title = strings.TrimSpace(v)
		changed = true
	}
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		if err := task.ValidateStatus(v, b.Statuses()); err != nil {
			return false, err
		}
		if v != task.NormalizeStatus(t.Status) {
			task.ChangeStatus(t, v, time.Now(), loc)
			changed = true
		}
	}
	if cmd.Flags().Changed("description") {
		v, _ := cmd.Flags().GetString("description")
		t.Description = v
		changed = true
	}

	dueChanged, err := applyDueChange(cmd, t, loc)
	if err != nil {
		return false, err
	}
	changed = changed || dueChanged

	subChanged, err := applySubtaskChanges(cmd, t)
	if err != nil {
		return false, err
	}
	return changed || subChanged, nil
}

func applyDueChange(cmd *cobra.Command, t *task.Task, loc *time.Location) (bool, error) {
	due, _ := cmd.Flags().GetString("due")
	clearDue, _ := cmd.Flags().GetBool("clear-due")
	switch {
	case due != "" && clearDue:
		return false, clierr.New(clierr.InvalidInput, "--due and --clear-due are mutually exclusive")
	case clearDue:
		t.Due = nil
		return true, nil
	case due != "":
		d, err := date.Parse(due, loc)
		if err != nil {
			return false, task.ValidateDate("due", due, err)
		}
		t.Due = &d
		return true, nil
	}
	return false, nil
}

func applySubtaskChanges(cmd *cobra.Command, t *task.Task) (bool, error) {
	changed := false
	toggles, _ := cmd.Flags().GetIntSlice("toggle-subtask")
	for _, n := range toggles {
		if n < 1 || n > len(t.Subtasks) {
			return false, clierr.Newf(clierr.InvalidInput, "subtask %d does not exist (task has %d)", n, len(t.Subtasks))
		}
		t.Subtasks[n-1].Completed = !t.Subtasks[n-1].Completed
		changed = true
	}
	adds, _ := cmd.Flags().GetStringArray("add-subtask")
	for _, title := range adds {
		if title = strings.TrimSpace(title); title == "" {
			continue
		}
		t.Subtasks = append(t.Subtasks, task.Subtask{Title: title})
		changed = true
	}
	return changed, nil
}
