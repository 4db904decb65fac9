package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/date"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

var addCmd = &cobra.Command{
	Use:     "add [TITLE]",
	Aliases: []string{"create"},
	Short:   "Add a task to the active board",
	Long: `Creates a task in a column of the active board. The store assigns the ID.

Title can be provided as a positional argument or via --title flag.
Use --from-file to import a task exported with 'protodo export'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().String("title", "", "task title (alternative to positional argument)")
	addCmd.Flags().String("status", task.StatusTodo, "column to add the task to")
	addCmd.Flags().String("description", "", "task description (markdown)")
	addCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "body" {
			name = "description"
		}
		return pflag.NormalizedName(name)
	})
	addCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	addCmd.Flags().StringArray("subtask", nil, "subtask title (repeatable)")
	addCmd.Flags().String("from-file", "", "import title, description, due date and subtasks from a task file")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	if _, err := s.activeBoard(cmd.Context()); err != nil {
		return err
	}

	draft, err := buildDraft(cmd, args, s.cfg.Location())
	if err != nil {
		return err
	}
	status, _ := cmd.Flags().GetString("status")

	t, err := s.sync.AddTask(cmd.Context(), status, draft)
	if err != nil {
		return err
	}
	return outputAddResult(t)
}

func outputAddResult(t *task.Task) error {
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}

	output.Messagef(os.Stdout, "Created task %s: %s", output.ShortID(t.ID), t.Title)
	output.Messagef(os.Stdout, "  Status: %s", t.Status)
	if t.Due != nil {
		output.Messagef(os.Stdout, "  Due: %s", t.Due.Format("2006-01-02"))
	}
	if _, total := task.CountSubtasks(t.Subtasks); total > 0 {
		output.Messagef(os.Stdout, "  Subtasks: %d", total)
	}
	return nil
}

// buildDraft assembles the new task from --from-file and the flags. Flags
// override fields read from the file.
func buildDraft(cmd *cobra.Command, args []string, loc *time.Location) (task.Draft, error) {
	var draft task.Draft
	if path, _ := cmd.Flags().GetString("from-file"); path != "" {
		t, err := task.Read(path)
		if err != nil {
			return task.Draft{}, clierr.Wrap(clierr.InvalidInput, err, err.Error())
		}
		draft = task.Draft{
			Title:       t.Title,
			Description: t.Description,
			Due:         t.Due,
			Subtasks:    t.Subtasks,
			History:     t.History,
		}
	}

	title, err := resolveAddTitle(cmd, args, draft.Title)
	if err != nil {
		return task.Draft{}, err
	}
	draft.Title = title

	if v, _ := cmd.Flags().GetString("description"); v != "" {
		draft.Description = v
	}
	if v, _ := cmd.Flags().GetString("due"); v != "" {
		d, err := date.Parse(v, loc)
		if err != nil {
			return task.Draft{}, task.ValidateDate("due", v, err)
		}
		draft.Due = &d
	}
	subs, _ := cmd.Flags().GetStringArray("subtask")
	for _, sub := range subs {
		if sub = strings.TrimSpace(sub); sub == "" {
			continue
		}
		draft.Subtasks = append(draft.Subtasks, task.Subtask{Title: sub})
	}
	return draft, nil
}

// resolveAddTitle returns the task title from the positional arg, --title,
// or the imported file, in that order.
func resolveAddTitle(cmd *cobra.Command, args []string, imported string) (string, error) {
	flagTitle, _ := cmd.Flags().GetString("title")
	hasPositional := len(args) > 0
	hasFlag := flagTitle != ""

	switch {
	case hasPositional && hasFlag:
		return "", clierr.New(clierr.InvalidInput,
			"title provided both as argument and --title flag; use one or the other")
	case hasPositional:
		return args[0], nil
	case hasFlag:
		return flagTitle, nil
	case imported != "":
		return imported, nil
	default:
		return "", clierr.New(clierr.InvalidInput, "title is required: provide it as an argument or with --title")
	}
}
