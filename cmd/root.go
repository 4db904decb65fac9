// Package cmd implements the protodo CLI commands.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/config"
	"github.com/twiced-technology-gmbh/protodo/internal/logging"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
	"github.com/twiced-technology-gmbh/protodo/internal/prefs"
	"github.com/twiced-technology-gmbh/protodo/internal/remote"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagJSON    bool
	flagTable   bool
	flagCompact bool
	flagDir     string
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "protodo",
	Short: "Kanban boards in the terminal, synced with a task store",
	Long: `protodo keeps kanban boards in sync with a remote task store.
Run protodo without arguments to open the board; use the subcommands to
script boards, tasks and custom statuses.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runTUI,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			output.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output as table")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "path to the protodo config directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	_, err := rootCmd.ExecuteContextC(ctx)
	stop()
	if err == nil {
		return
	}

	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		os.Exit(silent.Code)
	}

	if outputFormat() == output.FormatJSON {
		output.ErrorJSON(os.Stdout, err)
	} else {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

// exitCode is 2 for internal errors and 1 otherwise.
func exitCode(err error) int {
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode()
	}
	if outputFormat() == output.FormatJSON {
		return 2 //nolint:mnd // uncoded errors are reported as INTERNAL_ERROR
	}
	return 1
}

// resolveDir returns the absolute path to the config directory: --dir, a
// .protodo directory above the working directory, or the user config dir.
func resolveDir() (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	dir, err := config.FindDir(cwd)
	if err == nil {
		return dir, nil
	}

	return config.UserDir()
}

// loadConfig finds and loads the config. The user config directory is
// created with defaults on first use.
func loadConfig() (*config.Config, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, config.ErrNotFound) {
		return nil, err
	}
	userDir, userErr := config.UserDir()
	if userErr != nil || dir != userDir {
		return nil, clierr.Wrap(clierr.InvalidInput, err, err.Error())
	}

	if _, err := config.Init(userDir); err != nil {
		return nil, err
	}
	return config.Load(userDir)
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// newLogger returns the stderr logger configured by cfg.
func newLogger(cfg *config.Config) *log.Logger {
	return logging.New(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// session bundles what every store-backed command needs.
type session struct {
	cfg    *config.Config
	client *remote.Client
	sync   *board.Synchronizer
}

// newSession connects a synchronizer to the configured store. sink may be
// nil.
func newSession(cfg *config.Config, logger *log.Logger, sink board.EventSink) (*session, error) {
	client, err := remote.New(remote.Options{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.Auth.Token,
		Timeout: cfg.RequestTimeout(),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	opts := board.DefaultOptions()
	opts.BaseStatuses = cfg.Statuses
	opts.RollbackOnMoveFailure = cfg.RollbackOnMoveFailure()
	opts.PersistTimeout = cfg.RequestTimeout()
	opts.JournalDir = cfg.Dir()
	opts.Logger = logger
	opts.Location = cfg.Location()
	opts.Sink = sink

	return &session{
		cfg:    cfg,
		client: client,
		sync:   board.New(client, prefs.NewFile(cfg.PrefsPath()), opts),
	}, nil
}

// openSession loads the config and opens a session without an event sink.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newSession(cfg, newLogger(cfg), nil)
}

// activeBoard loads the board list and the active board's tasks.
func (s *session) activeBoard(ctx context.Context) (board.Board, error) {
	if err := s.sync.LoadBoards(ctx); err != nil {
		return board.Board{}, err
	}
	id := s.sync.ActiveBoardID()
	if id == "" {
		return board.Board{}, clierr.New(clierr.BoardNotFound,
			"no active board; create one with 'protodo board add NAME'")
	}
	return s.loadBoard(ctx, id)
}

func (s *session) loadBoard(ctx context.Context, id string) (board.Board, error) {
	if err := s.sync.LoadTasks(ctx, id); err != nil {
		return board.Board{}, err
	}
	b, ok := s.sync.Board(id)
	if !ok {
		return board.Board{}, clierr.Newf(clierr.BoardNotFound, "board not found: %s", id)
	}
	return b, nil
}

// resolveBoard finds a board by ID, unique ID prefix or case-insensitive
// name among all loaded boards.
func resolveBoard(state board.State, arg string) (board.Board, error) {
	all := append(append([]board.Board(nil), state.Active...), state.Archived...)
	var prefixed, named []board.Board
	for _, b := range all {
		switch {
		case b.ID == arg:
			return b, nil
		case strings.HasPrefix(b.ID, arg):
			prefixed = append(prefixed, b)
		case strings.EqualFold(b.Name, arg):
			named = append(named, b)
		}
	}
	for _, candidates := range [][]board.Board{prefixed, named} {
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return candidates[0], nil
		default:
			return board.Board{}, clierr.Newf(clierr.InvalidInput, "board %q is ambiguous", arg).
				WithDetails(map[string]any{"board": arg, "matches": len(candidates)})
		}
	}
	return board.Board{}, clierr.Newf(clierr.BoardNotFound, "board not found: %s", arg).
		WithDetails(map[string]any{"board": arg})
}

// resolveTask finds a task on b by ID or unique ID prefix, as shown in
// tables.
func resolveTask(b board.Board, arg string) (*task.Task, board.Position, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, board.Position{}, clierr.New(clierr.InvalidInput, "task ID is required")
	}
	var match *task.Task
	var at board.Position
	matches := 0
	for _, c := range b.Columns {
		for i, t := range c.Tasks {
			if t.ID == arg {
				return t, board.Position{Column: c.Status, Index: i}, nil
			}
			if strings.HasPrefix(t.ID, arg) {
				match, at = t, board.Position{Column: c.Status, Index: i}
				matches++
			}
		}
	}
	switch matches {
	case 0:
		return nil, board.Position{}, task.ValidateTaskID(arg)
	case 1:
		return match, at, nil
	default:
		return nil, board.Position{}, clierr.Newf(clierr.InvalidInput, "task ID %q is ambiguous", arg).
			WithDetails(map[string]any{"id": arg, "matches": matches})
	}
}

// parseIDs splits a comma-separated ID list, dropping blanks and duplicates.
func parseIDs(arg string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, part := range strings.Split(arg, ",") {
		id := strings.TrimSpace(part)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, clierr.New(clierr.InvalidInput, "no task IDs given")
	}
	return ids, nil
}

// runBatch runs fn for every ID and reports each outcome. If any failed it
// returns a SilentError with exit code 1 after printing the results.
func runBatch(ids []string, fn func(string) error) error {
	results := make([]output.BatchResult, 0, len(ids))
	failed := 0
	for _, id := range ids {
		res := output.NewBatchResult(id, fn(id))
		if !res.OK {
			failed++
		}
		results = append(results, res)
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if !r.OK {
				fmt.Fprintf(os.Stderr, "Error: task %s: %s\n", r.ID, r.Error)
			}
		}
		output.Messagef(os.Stdout, "Completed %d/%d operations", len(ids)-failed, len(ids))
	}

	if failed > 0 {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}

// confirm asks a yes/no question on stderr. Without a terminal it fails with
// CONFIRMATION_REQUIRED so scripts must pass --yes.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, clierr.New(clierr.ConfirmationReq,
			"cannot prompt for confirmation (not a terminal); use --yes")
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer != "y" && answer != "yes" {
		fmt.Fprintln(os.Stderr, "Canceled.")
		return false, nil
	}
	return true, nil
}
