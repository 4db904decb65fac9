package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent local activity",
	Long: `Prints the local activity journal: every mutation this machine sent to
the store and whether it succeeded. Use --board to show one board only.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	logCmd.Flags().IntP("limit", "n", 20, "number of entries to show (0 for all)") //nolint:mnd // default page size
	logCmd.Flags().String("board", "", "only show entries for this board ID")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	boardID, _ := cmd.Flags().GetString("board")

	readLimit := limit
	if boardID != "" {
		readLimit = 0
	}
	entries, err := board.ReadLog(cfg.Dir(), readLimit)
	if err != nil {
		return err
	}
	if boardID != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.BoardID == boardID {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
		if limit > 0 && len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
	}

	switch outputFormat() {
	case output.FormatJSON:
		if entries == nil {
			entries = []board.LogEntry{}
		}
		return output.JSON(os.Stdout, entries)
	case output.FormatCompact:
		output.ActivityCompact(os.Stdout, entries, cfg.Location())
	default:
		output.ActivityTable(os.Stdout, entries, cfg.Location())
	}
	return nil
}
