package cmd

import (
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `Lists the tasks of the active board (or --board) in column order,
with optional filtering, sorting, and output format control.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().String("board", "", "board ID, ID prefix or name (default: active board)")
	listCmd.Flags().StringSlice("status", nil, "filter by status (comma-separated)")
	listCmd.Flags().StringP("search", "s", "", "search tasks by title, description or subtasks (case-insensitive)")
	listCmd.Flags().Bool("pinned", false, "show only pinned tasks")
	listCmd.Flags().Bool("open", false, "show only tasks not marked completed")
	listCmd.Flags().Bool("overdue", false, "show only overdue tasks")
	listCmd.Flags().String("sort", board.SortPosition, "sort field ("+strings.Join(board.ValidSortFields(), ", ")+")")
	listCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")
	listCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	statuses, _ := cmd.Flags().GetStringSlice("status")
	search, _ := cmd.Flags().GetString("search")
	pinned, _ := cmd.Flags().GetBool("pinned")
	open, _ := cmd.Flags().GetBool("open")
	overdue, _ := cmd.Flags().GetBool("overdue")
	sortBy, _ := cmd.Flags().GetString("sort")
	reverse, _ := cmd.Flags().GetBool("reverse")
	limit, _ := cmd.Flags().GetInt("limit")
	boardArg, _ := cmd.Flags().GetString("board")

	if !slices.Contains(board.ValidSortFields(), sortBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --sort field %q; valid: %s",
			sortBy, strings.Join(board.ValidSortFields(), ", "))
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	b, err := listBoard(cmd, s, boardArg)
	if err != nil {
		return err
	}

	for _, st := range statuses {
		if err := task.ValidateStatus(st, b.Statuses()); err != nil {
			return err
		}
	}

	filter := board.FilterOptions{
		Statuses: statuses,
		Search:   search,
		Overdue:  overdue,
		Now:      time.Now(),
	}
	if pinned {
		filter.Pinned = &pinned
	}
	if open {
		notDone := false
		filter.Completed = &notDone
	}

	tasks := board.Filter(b.Tasks(), filter)
	board.Sort(tasks, sortBy, reverse, b.Statuses())
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}

	return outputTaskList(tasks, s.cfg.Location())
}

func listBoard(cmd *cobra.Command, s *session, arg string) (board.Board, error) {
	ctx := cmd.Context()
	if arg == "" {
		return s.activeBoard(ctx)
	}
	if err := s.sync.LoadBoards(ctx); err != nil {
		return board.Board{}, err
	}
	b, err := resolveBoard(s.sync.Snapshot(), arg)
	if err != nil {
		return board.Board{}, err
	}
	return s.loadBoard(ctx, b.ID)
}

func outputTaskList(tasks []*task.Task, loc *time.Location) error {
	format := outputFormat()
	if format == output.FormatJSON {
		if tasks == nil {
			tasks = []*task.Task{}
		}
		return output.JSON(os.Stdout, tasks)
	}
	if format == output.FormatCompact {
		output.TaskCompact(os.Stdout, tasks, loc)
		return nil
	}

	output.TaskTable(os.Stdout, tasks, loc)
	return nil
}
