package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"audio-transcription/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export text as a TXT, Word or PDF document",
	Long: `Render text read from a file or stdin into a document.

Examples:
  transcriber export --format pdf --input notes.txt
  pbpaste | transcriber export --format docx --output-dir ~/Desktop`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// Flags
var (
	exportFormat    string
	exportInput     string
	exportOutputDir string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "txt", "Output format: docx, pdf, txt")
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "", "Text file (default: stdin)")
	exportCmd.Flags().StringVarP(&exportOutputDir, "output-dir", "o", "", "Export directory (default: settings export dir)")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	var text []byte
	if exportInput != "" {
		text, err = os.ReadFile(exportInput)
	} else {
		text, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("read text: %w", err)
	}

	dir := exportOutputDir
	if dir == "" {
		app, err := NewAppContext()
		if err != nil {
			return err
		}
		dir = app.Settings.ExportDir
	}

	doc, err := export.Render(format, string(text))
	if err != nil {
		return err
	}
	path, err := export.DirSaver{Dir: dir}.Save(cmd.Context(), doc)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s saved to %s\n", format.Label(), filepath.Clean(path))
	return nil
}
