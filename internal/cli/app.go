package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"audio-transcription/internal/bootstrap"
	"audio-transcription/internal/capture"
	"audio-transcription/internal/config"
	"audio-transcription/internal/domain"
	"audio-transcription/internal/events"
	"audio-transcription/internal/export"
	"audio-transcription/internal/logging"
	"audio-transcription/internal/platform"
	"audio-transcription/internal/transcription"
	"audio-transcription/internal/workflow"
)

// AppContext holds the shared dependencies for CLI commands.
type AppContext struct {
	Settings domain.Settings
	Store    *config.JSONStore
	Log      zerolog.Logger
}

// NewAppContext loads the env file, settings and flag overrides.
func NewAppContext() (*AppContext, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	log := logging.New(logging.FromEnv())

	path := configPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user home: %w", err)
		}
		path = config.SettingsPath(home)
	}
	store := config.NewJSONStore(path)

	settings, err := bootstrap.LoadSettings(store)
	if err != nil {
		return nil, err
	}
	if endpointArg != "" {
		settings.Endpoint = endpointArg
	}
	if backendArg != "" {
		settings.Backend = domain.Backend(backendArg)
	}

	return &AppContext{
		Settings: config.Normalize(settings),
		Store:    store,
		Log:      log,
	}, nil
}

// NewController builds a workflow controller backed by the microphone,
// the system clipboard and the export directory.
func (a *AppContext) NewController(exportDir string) (*workflow.Controller, error) {
	tr, err := transcription.New(a.Settings, logging.Component(a.Log, "transcription"))
	if err != nil {
		return nil, err
	}
	if exportDir == "" {
		exportDir = a.Settings.ExportDir
	}

	bus := events.NewBus(1000)
	device := capture.NewPortAudioDevice(capture.DefaultSampleRate, logging.Component(a.Log, "portaudio"))

	return workflow.NewController(workflow.Deps{
		Recorder:    capture.New(device, logging.Component(a.Log, "capture")),
		Transcriber: tr,
		Saver:       export.DirSaver{Dir: exportDir},
		Clipboard:   platform.SystemClipboard{},
		Bus:         bus,
		Log:         logging.Component(a.Log, "workflow"),
	}), nil
}

// failure returns the first danger notification published after seq.
func failure(bus *events.Bus, seq int64) error {
	for _, e := range bus.Since(seq) {
		if e.Type == events.TypeNotification && e.Notification != nil && e.Notification.Severity == domain.SeverityDanger {
			return fmt.Errorf("%s", e.Notification.Message)
		}
	}
	return nil
}

// lastSeq returns the newest sequence number on the bus.
func lastSeq(bus *events.Bus) int64 {
	all := bus.Since(0)
	if len(all) == 0 {
		return 0
	}
	return all[len(all)-1].Seq
}

// deliver prints the text and runs the requested exports and copy.
func deliver(ctx context.Context, ctrl *workflow.Controller, out io.Writer, formats []string, copyText bool) error {
	text := ctrl.State().Text
	fmt.Fprintln(out, text)

	for _, raw := range formats {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			format, err := export.ParseFormat(part)
			if err != nil {
				return err
			}
			path, err := ctrl.Export(ctx, format)
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			fmt.Fprintf(out, "%s saved to %s\n", format.Label(), path)
		}
	}

	if copyText {
		if err := ctrl.CopyText(); err != nil {
			return fmt.Errorf("copy: %w", err)
		}
		fmt.Fprintln(out, workflow.MsgCopied)
	}
	return nil
}
