package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/output"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

var doneCmd = &cobra.Command{
	Use:   "done ID[,ID,...]",
	Short: "Toggle whether tasks are marked completed",
	Long: `Flips the completed flag of tasks on the active board and records the
change in each task's history. Completion is independent of the column.`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

func init() {
	rootCmd.AddCommand(doneCmd)
}

func runDone(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	b, err := s.activeBoard(cmd.Context())
	if err != nil {
		return err
	}

	toggle := func(id string) (*task.Task, error) {
		t, _, err := resolveTask(b, id)
		if err != nil {
			return nil, err
		}
		return s.sync.ToggleCompletion(cmd.Context(), t)
	}

	if len(ids) > 1 {
		return runBatch(ids, func(id string) error {
			_, err := toggle(id)
			return err
		})
	}

	t, err := toggle(ids[0])
	if err != nil {
		return err
	}
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}
	verb := "Reopened"
	if t.Completed {
		verb = "Completed"
	}
	output.Messagef(os.Stdout, "%s task %s: %s", verb, output.ShortID(t.ID), t.Title)
	return nil
}
