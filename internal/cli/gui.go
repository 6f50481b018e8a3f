package cli

import (
	"github.com/spf13/cobra"

	"audio-transcription/internal/bootstrap"
)

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open the desktop window",
	Long: `Open the desktop window. Frontend assets are served from ./frontend;
release builds embed them through the wails entry point at the repo root.`,
	Args: cobra.NoArgs,
	RunE: runGUI,
}

func init() {
	rootCmd.AddCommand(guiCmd)
}

func runGUI(cmd *cobra.Command, args []string) error {
	app, err := NewAppContext()
	if err != nil {
		return err
	}

	gui, err := bootstrap.New(app.Log)
	if err != nil {
		return err
	}
	return gui.Run()
}
