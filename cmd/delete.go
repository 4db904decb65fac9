package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
)

var deleteCmd = &cobra.Command{
	Use:     "delete ID[,ID,...]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Permanently deletes tasks of the active board from the store. Prompts for
confirmation in interactive mode.
Multiple IDs can be provided as a comma-separated list (requires --yes).`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}
	yes, _ := cmd.Flags().GetBool("yes")

	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationReq, "batch delete requires --yes")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	b, err := s.activeBoard(cmd.Context())
	if err != nil {
		return err
	}

	if len(ids) > 1 {
		return runBatch(ids, func(id string) error {
			t, _, err := resolveTask(b, id)
			if err != nil {
				return err
			}
			return s.sync.DeleteTask(cmd.Context(), t.ID)
		})
	}

	t, _, err := resolveTask(b, ids[0])
	if err != nil {
		return err
	}
	if !yes {
		ok, err := confirm(fmt.Sprintf("Delete task %s %q?", output.ShortID(t.ID), t.Title))
		if err != nil || !ok {
			return err
		}
	}
	if err := s.sync.DeleteTask(cmd.Context(), t.ID); err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"id":      t.ID,
			"title":   t.Title,
			"deleted": true,
		})
	}
	output.Messagef(os.Stdout, "Deleted task %s: %s", output.ShortID(t.ID), t.Title)
	return nil
}
