package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"audio-transcription/internal/config"
	"audio-transcription/internal/domain"
)

// FixDiagnostic applies a settings-level remediation for one failed
// diagnostic item and returns the refreshed report.
func (a *App) FixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = config.Normalize(settings)
	defaults := config.DefaultSettings()

	switch id {
	case "endpoint":
		settings.Endpoint = defaults.Endpoint
	case "openai_key":
		settings.Backend = domain.BackendHTTP
	case "export_dir":
		if err := os.MkdirAll(settings.ExportDir, 0o755); err != nil {
			settings.ExportDir = defaults.ExportDir
			if err := os.MkdirAll(settings.ExportDir, 0o755); err != nil {
				return domain.DiagnosticReport{}, fmt.Errorf("create export directory: %w", err)
			}
		}
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("no automatic fix for %q", id)
	}

	if _, err := a.SaveSettings(settings); err != nil {
		return domain.DiagnosticReport{}, err
	}
	a.log.Info().Str("item", id).Msg("diagnostic fix applied")
	return a.GetDiagnostics(), nil
}
