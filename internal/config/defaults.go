package config

import (
	"os"
	"path/filepath"
	"strings"

	"audio-transcription/internal/domain"
)

// DefaultEndpoint is the transcription backend address built into the app.
const DefaultEndpoint = "http://192.168.1.6:8000"

// AppDirName is the per-user directory holding settings.
const AppDirName = ".audio-transcription"

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		Endpoint:  DefaultEndpoint,
		Backend:   domain.BackendHTTP,
		ExportDir: filepath.Join(homeDir, "Documents", "Transcriptions"),
	}
}

// SettingsPath returns the settings file location under homeDir.
func SettingsPath(homeDir string) string {
	return filepath.Join(homeDir, AppDirName, "settings.json")
}

// Normalize trims user inputs and fills empty fields from defaults.
func Normalize(settings domain.Settings) domain.Settings {
	defaults := DefaultSettings()

	settings.Endpoint = strings.TrimRight(strings.TrimSpace(settings.Endpoint), "/")
	if settings.Endpoint == "" {
		settings.Endpoint = defaults.Endpoint
	}
	settings.Backend = domain.Backend(strings.ToLower(strings.TrimSpace(string(settings.Backend))))
	if settings.Backend == "" {
		settings.Backend = defaults.Backend
	}
	settings.OpenAIAPIKey = strings.TrimSpace(settings.OpenAIAPIKey)
	settings.ExportDir = strings.TrimSpace(settings.ExportDir)
	if settings.ExportDir == "" {
		settings.ExportDir = defaults.ExportDir
	}
	if settings.TimeoutSeconds < 0 {
		settings.TimeoutSeconds = 0
	}
	return settings
}
