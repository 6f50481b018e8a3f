package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "transcriber",
	Short: "Record or import audio and turn it into text",
	Long: `transcriber records from the microphone or takes an audio/video file,
uploads it to a transcription service and lets you copy or export the text.

Settings live in ~/.audio-transcription/settings.json and can be overridden
through the environment or a .env file (TRANSCRIBER_ENDPOINT,
TRANSCRIBER_BACKEND, TRANSCRIBER_EXPORT_DIR, TRANSCRIBER_TIMEOUT,
OPENAI_API_KEY).`,
	SilenceUsage: true,
}

// Flags
var (
	configPath  string
	envFile     string
	endpointArg string
	backendArg  string
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: ~/.audio-transcription/settings.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before settings")
	rootCmd.PersistentFlags().StringVar(&endpointArg, "endpoint", "", "Transcription service address")
	rootCmd.PersistentFlags().StringVar(&backendArg, "backend", "", "Transcription backend: http, openai")
}
