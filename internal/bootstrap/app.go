package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"audio-transcription/internal/capture"
	"audio-transcription/internal/config"
	"audio-transcription/internal/diagnostics"
	"audio-transcription/internal/domain"
	"audio-transcription/internal/events"
	"audio-transcription/internal/export"
	"audio-transcription/internal/logging"
	"audio-transcription/internal/transcription"
	"audio-transcription/internal/workflow"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// EventName is the runtime event the frontend subscribes to.
const EventName = "app:event"

var mediaDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Audio and video",
		Pattern:     "*.mp3;*.wav;*.m4a;*.ogg;*.oga;*.flac;*.aac;*.webm;*.mp4;*.mov;*.mkv;*.avi",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, the recording workflow and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Controller  *workflow.Controller
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker
	log         zerolog.Logger

	newTranscriber func(domain.Settings, zerolog.Logger) (transcription.Transcriber, error)

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup diagnostics.
func New(log zerolog.Logger) (*App, error) {
	return NewWithAssets(nil, log)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS, log zerolog.Logger) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(config.SettingsPath(homeDir))
	settings, err := LoadSettings(store)
	if err != nil {
		return nil, err
	}

	tr := newTranscriberOrFallback(settings, logging.Component(log, "transcription"), transcription.New)

	device := capture.NewPortAudioDevice(capture.DefaultSampleRate, logging.Component(log, "portaudio"))
	checker := diagnostics.NewChecker(device.Probe)

	app := &App{
		Settings:       settings,
		Store:          store,
		Diagnostics:    checker.Run(settings),
		assets:         assets,
		checker:        checker,
		log:            logging.Component(log, "app"),
		newTranscriber: transcription.New,
	}
	app.Controller = workflow.NewController(workflow.Deps{
		Recorder:    capture.New(device, logging.Component(log, "capture")),
		Transcriber: tr,
		Saver:       dialogSaver{app: app},
		Clipboard:   runtimeClipboard{app: app},
		Bus:         events.NewBus(1000),
		Log:         logging.Component(log, "workflow"),
	})
	return app, nil
}

// newTranscriberOrFallback builds the configured backend. A backend that
// cannot be built (openai without a key) falls back to the http endpoint so
// the window still opens and diagnostics can offer the fix.
func newTranscriberOrFallback(
	settings domain.Settings,
	log zerolog.Logger,
	build func(domain.Settings, zerolog.Logger) (transcription.Transcriber, error),
) transcription.Transcriber {
	tr, err := build(settings, log)
	if err == nil {
		return tr
	}

	log.Warn().Err(err).Str("backend", string(settings.Backend)).Msg("falling back to http transcription backend")
	return transcription.NewHTTPClient(settings.Endpoint, settings.Timeout(), log)
}

// LoadSettings reads persisted settings and overlays the process environment.
func LoadSettings(store config.Store) (domain.Settings, error) {
	settings, err := store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return config.Normalize(config.ApplyEnv(settings, os.LookupEnv)), nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Audio Transcription",
		Width:       960,
		Height:      720,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores the Wails runtime context and starts pushing events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = ctx
	a.mu.Unlock()

	a.Controller.Bus().Subscribe(a.emit)
}

// Shutdown releases the microphone and abandons pending transcriptions.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.Controller.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close workflow")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = nil
}

// GetView returns the current screen projection.
func (a *App) GetView() workflow.View {
	return a.Controller.View()
}

// Events returns all events with sequence greater than sinceSeq.
func (a *App) Events(sinceSeq int64) []events.Event {
	return a.Controller.Bus().Since(sinceSeq)
}

// StartRecording opens the microphone and starts the timer.
func (a *App) StartRecording() (workflow.View, error) {
	err := a.Controller.StartRecording(context.Background())
	return a.Controller.View(), err
}

// StopRecording ends the recording and submits it for transcription.
func (a *App) StopRecording() (workflow.View, error) {
	err := a.Controller.StopRecording(context.Background())
	return a.Controller.View(), err
}

// PickAndImportFile asks for a media file and submits it. Dismissing the
// dialog leaves everything as it was.
func (a *App) PickAndImportFile() (workflow.View, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return a.Controller.View(), err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select audio or video file",
		Filters: mediaDialogFilter,
	})
	if err != nil {
		return a.Controller.View(), err
	}
	return a.ImportFile(path)
}

// ImportFile submits a file already chosen by the frontend.
func (a *App) ImportFile(path string) (workflow.View, error) {
	err := a.Controller.ImportFile(context.Background(), strings.TrimSpace(path))
	return a.Controller.View(), err
}

// CopyText copies the transcribed text to the clipboard.
func (a *App) CopyText() error {
	return a.Controller.CopyText()
}

// Export renders the text in format and asks where to save it.
func (a *App) Export(format string) (string, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}
	return a.Controller.Export(context.Background(), f)
}

// ResetTranscription clears the text and abandons a pending transcription.
func (a *App) ResetTranscription() workflow.View {
	a.Controller.Reset()
	return a.Controller.View()
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, switches the transcription
// backend, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(settings)

	tr, err := a.newTranscriber(normalized, logging.Component(a.log, "transcription"))
	if err != nil {
		return domain.Settings{}, fmt.Errorf("configure transcription: %w", err)
	}
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	a.Controller.SetTranscriber(tr)

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	a.log.Info().Str("backend", string(normalized.Backend)).Str("endpoint", normalized.Endpoint).Msg("settings saved")
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := LoadSettings(a.Store)
	if err != nil {
		return domain.DiagnosticReport{}, err
	}

	report := a.checker.Run(settings)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	a.Diagnostics = report
	return report, nil
}

// emit forwards bus events to the frontend while the window is up.
func (a *App) emit(event events.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, EventName, event)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}
