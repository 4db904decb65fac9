package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/output"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Manage the active board's columns",
	Long: `Lists, adds and removes custom statuses. Custom statuses are extra columns
scoped to one board and kept in local preferences, never in the store.`,
}

var statusListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the active board's columns in order",
	Args:    cobra.NoArgs,
	RunE:    runStatusList,
}

var statusAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a custom column to the active board",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatusAdd,
}

var statusRemoveCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm"},
	Short:   "Remove a custom column; its tasks move to todo",
	Args:    cobra.ExactArgs(1),
	RunE:    runStatusRemove,
}

func init() {
	statusAddCmd.Flags().String("icon", "", "icon shown in the column header")
	statusCmd.AddCommand(statusListCmd, statusAddCmd, statusRemoveCmd)
	rootCmd.AddCommand(statusCmd)
}

func runStatusList(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	b, err := s.activeBoard(cmd.Context())
	if err != nil {
		return err
	}
	return outputStatuses(s, b.ID)
}

func runStatusAdd(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	b, err := s.activeBoard(cmd.Context())
	if err != nil {
		return err
	}
	icon, _ := cmd.Flags().GetString("icon")
	if err := s.sync.AddCustomStatus(b.ID, task.CustomStatus{Name: args[0], Icon: icon}); err != nil {
		return err
	}
	if outputFormat() != output.FormatJSON {
		output.Messagef(os.Stdout, "Added status %s to board %s", args[0], b.Name)
	}
	return outputStatuses(s, b.ID)
}

func runStatusRemove(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	b, err := s.activeBoard(cmd.Context())
	if err != nil {
		return err
	}
	if err := s.sync.RemoveCustomStatus(cmd.Context(), b.ID, args[0]); err != nil {
		return err
	}
	if outputFormat() != output.FormatJSON {
		output.Messagef(os.Stdout, "Removed status %s from board %s", args[0], b.Name)
	}
	return outputStatuses(s, b.ID)
}

func outputStatuses(s *session, boardID string) error {
	order, err := s.sync.Statuses(boardID)
	if err != nil {
		return err
	}
	custom := s.sync.CustomStatuses(boardID)

	if outputFormat() == output.FormatJSON {
		if custom == nil {
			custom = []task.CustomStatus{}
		}
		return output.JSON(os.Stdout, map[string]any{
			"board":    boardID,
			"statuses": order,
			"custom":   custom,
		})
	}
	output.StatusTable(os.Stdout, order, custom)
	return nil
}
