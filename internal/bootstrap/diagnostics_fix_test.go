package bootstrap

import (
	"testing"

	"github.com/rs/zerolog"

	"audio-transcription/internal/config"
	"audio-transcription/internal/domain"
	"audio-transcription/internal/transcription"
)

// statusByID returns the status of one diagnostic item.
func statusByID(t *testing.T, report domain.DiagnosticReport, id string) domain.DiagnosticStatus {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			return item.Status
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
	return ""
}

// TestMissingOpenAIKeyFallsBackToHTTP checks startup survives a backend
// that cannot be built.
func TestMissingOpenAIKeyFallsBackToHTTP(t *testing.T) {
	settings := domain.Settings{Endpoint: "http://stt.local:8000", Backend: domain.BackendOpenAI}

	tr := newTranscriberOrFallback(settings, zerolog.Nop(), transcription.New)
	client, ok := tr.(*transcription.HTTPClient)
	if !ok {
		t.Fatalf("transcriber = %T, want *transcription.HTTPClient", tr)
	}
	if got := client.URL(); got != "http://stt.local:8000/transcribe" {
		t.Fatalf("url = %q", got)
	}
}

// TestFixDiagnosticOpenAIKey repairs an openai backend configured without a key.
func TestFixDiagnosticOpenAIKey(t *testing.T) {
	t.Setenv(config.EnvBackend, "")
	t.Setenv(config.EnvOpenAIKey, "")

	store := &fakeStore{settings: domain.Settings{Backend: domain.BackendOpenAI, ExportDir: t.TempDir()}}
	app := newTestApp(t, store)
	app.newTranscriber = transcription.New

	report, err := app.RefreshDiagnostics()
	if err != nil {
		t.Fatalf("RefreshDiagnostics() error = %v", err)
	}
	if got := statusByID(t, report, "openai_key"); got != domain.DiagnosticStatusFail {
		t.Fatalf("openai_key status = %s, want fail", got)
	}

	report, err = app.FixDiagnostic("openai_key")
	if err != nil {
		t.Fatalf("FixDiagnostic() error = %v", err)
	}
	if store.settings.Backend != domain.BackendHTTP {
		t.Fatalf("backend = %s, want http", store.settings.Backend)
	}
	for _, item := range report.Items {
		if item.ID == "openai_key" {
			t.Fatalf("openai_key still reported after fix: %+v", item)
		}
	}
}

// TestFixDiagnosticEndpoint restores the built-in address.
func TestFixDiagnosticEndpoint(t *testing.T) {
	store := &fakeStore{settings: domain.Settings{Endpoint: "not a url", ExportDir: t.TempDir()}}
	app := newTestApp(t, store)

	report, err := app.FixDiagnostic("endpoint")
	if err != nil {
		t.Fatalf("FixDiagnostic() error = %v", err)
	}
	if store.settings.Endpoint != config.DefaultEndpoint {
		t.Fatalf("endpoint = %q, want %q", store.settings.Endpoint, config.DefaultEndpoint)
	}
	if app.Settings.Endpoint != config.DefaultEndpoint {
		t.Fatalf("app endpoint = %q", app.Settings.Endpoint)
	}
	// The test checker cannot dial, but the address itself is now valid.
	for _, item := range report.Items {
		if item.ID == "endpoint" && item.Message == `Invalid endpoint: "not a url"` {
			t.Fatalf("endpoint still invalid: %+v", item)
		}
	}
}

func TestFixDiagnosticRequiresID(t *testing.T) {
	app := newTestApp(t, &fakeStore{})
	if _, err := app.FixDiagnostic("  "); err == nil {
		t.Fatal("expected error")
	}
}
