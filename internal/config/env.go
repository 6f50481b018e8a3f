package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"audio-transcription/internal/domain"
)

// Environment variables that override persisted settings.
const (
	EnvEndpoint  = "TRANSCRIBER_ENDPOINT"
	EnvBackend   = "TRANSCRIBER_BACKEND"
	EnvExportDir = "TRANSCRIBER_EXPORT_DIR"
	EnvTimeout   = "TRANSCRIBER_TIMEOUT"
	EnvOpenAIKey = "OPENAI_API_KEY"
)

// LoadDotEnv loads the given env files into the process environment.
// Missing files are skipped; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overlays environment overrides on settings.
func ApplyEnv(settings domain.Settings, lookup func(string) (string, bool)) domain.Settings {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvEndpoint); ok && strings.TrimSpace(v) != "" {
		settings.Endpoint = v
	}
	if v, ok := lookup(EnvBackend); ok && strings.TrimSpace(v) != "" {
		settings.Backend = domain.Backend(v)
	}
	if v, ok := lookup(EnvExportDir); ok && strings.TrimSpace(v) != "" {
		settings.ExportDir = v
	}
	if v, ok := lookup(EnvOpenAIKey); ok && strings.TrimSpace(v) != "" {
		settings.OpenAIAPIKey = v
	}
	if v, ok := lookup(EnvTimeout); ok {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			settings.TimeoutSeconds = secs
		}
	}

	return Normalize(settings)
}
