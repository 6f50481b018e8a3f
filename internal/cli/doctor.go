package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"audio-transcription/internal/capture"
	"audio-transcription/internal/diagnostics"
	"audio-transcription/internal/domain"
	"audio-transcription/internal/logging"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the endpoint, export directory and microphone",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

var doctorNoMic bool

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorNoMic, "no-mic", false, "Skip the microphone probe")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	app, err := NewAppContext()
	if err != nil {
		return err
	}

	var probe func() error
	if !doctorNoMic {
		probe = capture.NewPortAudioDevice(capture.DefaultSampleRate, logging.Component(app.Log, "portaudio")).Probe
	}
	report := diagnostics.NewChecker(probe).Run(app.Settings)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, item := range report.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", item.Status, item.Name, item.Message)
		if item.Hint != "" && item.Status != domain.DiagnosticStatusPass {
			fmt.Fprintf(w, "\t\t%s\n", item.Hint)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if report.HasFailures {
		return fmt.Errorf("%d check(s) failed", len(report.Failed()))
	}
	return nil
}
