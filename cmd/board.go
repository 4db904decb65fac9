package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage boards",
	Long:  `Create, archive, restore, delete and select boards, or summarize one.`,
}

var boardAddCmd = &cobra.Command{
	Use:     "add NAME",
	Aliases: []string{"create"},
	Short:   "Create a board and make it active",
	Args:    cobra.ExactArgs(1),
	RunE:    runBoardAdd,
}

var boardArchiveCmd = &cobra.Command{
	Use:   "archive BOARD",
	Short: "Archive a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBoardChange(cmd, args[0], "Archived", (*board.Synchronizer).ArchiveBoard)
	},
}

var boardRestoreCmd = &cobra.Command{
	Use:   "restore BOARD",
	Short: "Restore an archived board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBoardChange(cmd, args[0], "Restored", (*board.Synchronizer).RestoreBoard)
	},
}

var boardDeleteCmd = &cobra.Command{
	Use:     "delete BOARD",
	Aliases: []string{"rm"},
	Short:   "Delete a board and its tasks",
	Long:    `Permanently deletes a board. Prompts for confirmation in interactive mode.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runBoardDelete,
}

var boardUseCmd = &cobra.Command{
	Use:   "use BOARD",
	Short: "Select the board task commands operate on",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardUse,
}

var boardSummaryCmd = &cobra.Command{
	Use:   "summary [BOARD]",
	Short: "Show board summary",
	Long: `Displays task counts per column with pinned, completed and overdue totals.

Use --watch to keep the display live-updating. The summary re-renders
whenever the store pushes a change. Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBoardSummary,
}

func init() {
	boardDeleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	boardSummaryCmd.Flags().BoolP("watch", "w", false, "live-update the summary on store changes")
	boardCmd.AddCommand(boardAddCmd, boardArchiveCmd, boardRestoreCmd, boardDeleteCmd, boardUseCmd, boardSummaryCmd)
	rootCmd.AddCommand(boardCmd)
}

func runBoardAdd(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := s.sync.LoadBoards(ctx); err != nil {
		return err
	}
	info, err := s.sync.AddBoard(ctx, args[0])
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, info)
	}
	output.Messagef(os.Stdout, "Created board %s: %s", info.ID, info.Name)
	return nil
}

type boardChangeFunc func(*board.Synchronizer, context.Context, string) error

func runBoardChange(cmd *cobra.Command, arg, verb string, change boardChangeFunc) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := s.sync.LoadBoards(ctx); err != nil {
		return err
	}
	b, err := resolveBoard(s.sync.Snapshot(), arg)
	if err != nil {
		return err
	}
	if err := change(s.sync, ctx, b.ID); err != nil {
		return err
	}
	return outputBoardResult(s, b, verb)
}

func runBoardDelete(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := s.sync.LoadBoards(ctx); err != nil {
		return err
	}
	b, err := resolveBoard(s.sync.Snapshot(), args[0])
	if err != nil {
		return err
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		ok, err := confirm(fmt.Sprintf("Delete board %q and all of its tasks?", b.Name))
		if err != nil || !ok {
			return err
		}
	}

	if err := s.sync.DeleteBoard(ctx, b.ID); err != nil {
		return err
	}
	return outputBoardResult(s, b, "Deleted")
}

func runBoardUse(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	if err := s.sync.LoadBoards(cmd.Context()); err != nil {
		return err
	}
	b, err := resolveBoard(s.sync.Snapshot(), args[0])
	if err != nil {
		return err
	}
	if err := s.sync.SetActiveBoard(b.ID); err != nil {
		return err
	}
	return outputBoardResult(s, b, "Using")
}

func outputBoardResult(s *session, b board.Board, verb string) error {
	active := s.sync.ActiveBoardID()
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"id":           b.ID,
			"name":         b.Name,
			"action":       verb,
			"active_board": active,
		})
	}
	output.Messagef(os.Stdout, "%s board %s: %s", verb, b.ID, b.Name)
	if active != "" && active != b.ID {
		if next, ok := s.sync.Board(active); ok {
			output.Messagef(os.Stdout, "  Active board: %s", next.Name)
		}
	}
	return nil
}

func runBoardSummary(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	load := func() (board.Board, error) {
		if len(args) == 0 {
			return s.activeBoard(ctx)
		}
		if err := s.sync.LoadBoards(ctx); err != nil {
			return board.Board{}, err
		}
		b, err := resolveBoard(s.sync.Snapshot(), args[0])
		if err != nil {
			return board.Board{}, err
		}
		return s.loadBoard(ctx, b.ID)
	}

	b, err := load()
	if err != nil {
		return err
	}
	if err := renderSummary(b); err != nil {
		return err
	}

	if watch, _ := cmd.Flags().GetBool("watch"); !watch {
		return nil
	}
	return watchSummary(ctx, s, b.ID, load)
}

func renderSummary(b board.Board) error {
	summary := board.Summary(b, time.Now())

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, summary)
	case output.FormatCompact:
		output.OverviewCompact(os.Stdout, summary)
	default:
		output.OverviewTable(os.Stdout, summary)
	}
	return nil
}

func watchSummary(ctx context.Context, s *session, boardID string, load func() (board.Board, error)) error {
	changes, err := s.client.Subscribe(ctx, boardID)
	if err != nil {
		return fmt.Errorf("subscribing to store changes: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Watching for changes... (Ctrl+C to stop)")

	for range changes {
		b, err := load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: reloading board: %v\n", err)
			continue
		}
		clearScreen()
		if err := renderSummary(b); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: rendering summary: %v\n", err)
		}
	}
	return nil
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}
