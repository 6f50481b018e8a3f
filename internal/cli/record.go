package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"audio-transcription/internal/events"
	"audio-transcription/internal/logging"
	"audio-transcription/internal/platform"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the microphone and transcribe",
	Long: `Record from the default input device until Enter is pressed, then
upload the recording and print the transcription.

Examples:
  transcriber record
  transcriber record --export txt --copy
  transcriber record --notify`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

// Flags
var (
	recordExport    []string
	recordExportDir string
	recordCopy      bool
	recordNotify    bool
)

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringSliceVarP(&recordExport, "export", "e", nil, "Export formats: docx, pdf, txt")
	recordCmd.Flags().StringVarP(&recordExportDir, "output-dir", "o", "", "Export directory (default: settings export dir)")
	recordCmd.Flags().BoolVar(&recordCopy, "copy", false, "Copy the text to the clipboard")
	recordCmd.Flags().BoolVar(&recordNotify, "notify", false, "Show desktop notifications")
}

func runRecord(cmd *cobra.Command, args []string) error {
	app, err := NewAppContext()
	if err != nil {
		return err
	}

	ctrl, err := app.NewController(recordExportDir)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	out := cmd.ErrOrStderr()
	ctrl.Bus().Subscribe(func(e events.Event) {
		switch e.Type {
		case events.TypeTick:
			fmt.Fprintf(out, "\rRecording %s  (press Enter to stop)", e.Display)
		case events.TypeProgressShown:
			fmt.Fprintf(out, "\n%s\n", e.Message)
		}
	})
	if recordNotify {
		ctrl.Bus().Subscribe(platform.NewNotifier(logging.Component(app.Log, "notifier")).Listen)
	}

	ctx := cmd.Context()
	seq := lastSeq(ctrl.Bus())
	if err := ctrl.StartRecording(ctx); err != nil {
		return err
	}
	fmt.Fprint(out, "Recording 00:00  (press Enter to stop)")

	if _, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n'); err != nil {
		app.Log.Debug().Err(err).Msg("stdin closed, stopping recording")
	}

	if err := ctrl.StopRecording(ctx); err != nil {
		return err
	}
	ctrl.Wait()
	if err := failure(ctrl.Bus(), seq); err != nil {
		return err
	}

	return deliver(ctx, ctrl, cmd.OutOrStdout(), recordExport, recordCopy)
}
