package cli

import (
	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Transcribe an audio or video file",
	Long: `Upload an audio or video file and print the transcription.

Examples:
  transcriber transcribe interview.mp3
  transcriber transcribe meeting.mp4 --export docx,pdf
  transcriber transcribe memo.wav --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

// Flags
var (
	transcribeExport    []string
	transcribeExportDir string
	transcribeCopy      bool
)

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().StringSliceVarP(&transcribeExport, "export", "e", nil, "Export formats: docx, pdf, txt")
	transcribeCmd.Flags().StringVarP(&transcribeExportDir, "output-dir", "o", "", "Export directory (default: settings export dir)")
	transcribeCmd.Flags().BoolVar(&transcribeCopy, "copy", false, "Copy the text to the clipboard")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	app, err := NewAppContext()
	if err != nil {
		return err
	}

	ctrl, err := app.NewController(transcribeExportDir)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctx := cmd.Context()
	seq := lastSeq(ctrl.Bus())
	if err := ctrl.ImportFile(ctx, args[0]); err != nil {
		return err
	}
	ctrl.Wait()
	if err := failure(ctrl.Bus(), seq); err != nil {
		return err
	}

	return deliver(ctx, ctrl, cmd.OutOrStdout(), transcribeExport, transcribeCopy)
}
