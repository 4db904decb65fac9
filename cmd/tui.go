package cmd

import (
	"context"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/config"
	"github.com/twiced-technology-gmbh/protodo/internal/logging"
	"github.com/twiced-technology-gmbh/protodo/internal/tui"
	"github.com/twiced-technology-gmbh/protodo/internal/watcher"
)

const tuiLogFile = "tui.log"

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog := tuiLogger(cfg)
	defer closeLog()

	events := tui.NewEventSink()
	s, err := newSession(cfg, logger, events)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	opts := tui.Options{Events: events}
	if changes, err := s.client.Subscribe(ctx, ""); err == nil {
		opts.Changes = changes
	} else {
		logger.Warn("live updates unavailable", "err", err)
	}

	model := tui.NewBoard(ctx, s.sync, cfg, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	go startTUIWatcher(ctx, model, p, logger)

	_, err = p.Run()
	// Let in-flight moves settle before the process exits.
	s.sync.Wait()
	return err
}

// tuiLogger writes to a file in the config directory, since the alternate
// screen owns stderr. Falls back to discarding.
func tuiLogger(cfg *config.Config) (*log.Logger, func()) {
	f, err := os.OpenFile(filepath.Join(cfg.Dir(), tuiLogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec,mnd // trusted config dir
	if err != nil {
		return logging.Discard(), func() {}
	}
	logger := logging.New(f, logging.Options{
		Level:           cfg.Log.Level,
		Format:          cfg.Log.Format,
		Prefix:          "tui",
		ReportTimestamp: true,
	})
	return logger, func() { _ = f.Close() }
}

func startTUIWatcher(ctx context.Context, model *tui.Board, p *tea.Program, logger *log.Logger) {
	w, err := watcher.New(model.WatchPaths(), func() {
		p.Send(tui.ReloadMsg{})
	})
	if err != nil {
		logger.Debug("preferences watcher disabled", "err", err)
		return // non-fatal: TUI works without live refresh
	}
	defer w.Close()
	w.Run(ctx, func(err error) { logger.Warn("watcher", "err", err) })
}
