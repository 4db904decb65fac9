package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/output"
)

var pinCmd = &cobra.Command{
	Use:   "pin ID",
	Short: "Toggle whether a task is pinned",
	Long:  `Pinned tasks sort ahead of unpinned ones in their column. Running pin on a pinned task unpins it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPin,
}

func init() {
	rootCmd.AddCommand(pinCmd)
}

func runPin(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	b, err := s.activeBoard(cmd.Context())
	if err != nil {
		return err
	}
	t, _, err := resolveTask(b, args[0])
	if err != nil {
		return err
	}

	updated, err := s.sync.TogglePin(cmd.Context(), t.ID)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, updated)
	}
	verb := "Unpinned"
	if updated.Pinned {
		verb = "Pinned"
	}
	output.Messagef(os.Stdout, "%s task %s: %s", verb, output.ShortID(updated.ID), updated.Title)
	return nil
}
