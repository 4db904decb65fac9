package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List boards",
	Long:  `Lists active boards, marking the one task commands operate on. Use --archived for archived boards.`,
	Args:  cobra.NoArgs,
	RunE:  runBoards,
}

func init() {
	boardsCmd.Flags().Bool("archived", false, "list archived boards instead")
	rootCmd.AddCommand(boardsCmd)
}

func runBoards(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	if err := s.sync.LoadBoards(cmd.Context()); err != nil {
		return err
	}

	state := s.sync.Snapshot()
	list := state.Active
	if archived, _ := cmd.Flags().GetBool("archived"); archived {
		list = state.Archived
	}
	infos := make([]board.Info, len(list))
	for i, b := range list {
		infos[i] = board.Info{ID: b.ID, Name: b.Name, Archived: b.Archived}
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, infos)
	case output.FormatCompact:
		output.BoardCompact(os.Stdout, infos, state.ActiveID)
	default:
		output.BoardTable(os.Stdout, infos, state.ActiveID)
	}
	return nil
}
