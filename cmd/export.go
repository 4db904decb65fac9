package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/output"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

var exportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Export a task as markdown",
	Long: `Writes a task as a markdown file with YAML frontmatter. Without --out the
file is printed to stdout. If --out names a directory the file is named after
the task title. The file can be re-imported with 'protodo add --from-file'.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "output file or directory")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		data, err := task.Marshal(t)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	path := out
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		path = filepath.Join(out, task.Filename(t))
	}
	if err := task.Write(path, t); err != nil {
		return clierr.Wrap(clierr.InternalError, err, fmt.Sprintf("writing %s: %v", path, err))
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"id": t.ID, "path": path})
	}
	output.Messagef(os.Stdout, "Exported task %s to %s", output.ShortID(t.ID), path)
	return nil
}
