package diagnostics

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"audio-transcription/internal/domain"
)

const dialTimeout = 2 * time.Second

// Checker validates the transcription endpoint, export directory and microphone.
type Checker struct {
	dial       func(network, address string, timeout time.Duration) (net.Conn, error)
	probeMic   func() error
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies. probeMic may be
// nil when no microphone support is compiled in.
func NewChecker(probeMic func() error) *Checker {
	return &Checker{
		dial:       net.DialTimeout,
		probeMic:   probeMic,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkBackend(settings),
		c.checkExportDir(settings.ExportDir),
		c.checkMicrophone(),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkBackend validates the configured transcription service.
func (c *Checker) checkBackend(settings domain.Settings) domain.DiagnosticItem {
	if settings.Backend == domain.BackendOpenAI {
		item := domain.DiagnosticItem{ID: "openai_key", Name: "OpenAI API key"}
		if strings.TrimSpace(settings.OpenAIAPIKey) == "" {
			item.Status = domain.DiagnosticStatusFail
			item.Message = "OpenAI backend selected but no API key is set."
			item.Hint = "Set OPENAI_API_KEY or switch the backend to http."
			return item
		}
		item.Status = domain.DiagnosticStatusPass
		item.Message = "API key configured."
		return item
	}

	item := domain.DiagnosticItem{ID: "endpoint", Name: "Transcription endpoint"}

	u, err := url.Parse(strings.TrimSpace(settings.Endpoint))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Invalid endpoint: %q", settings.Endpoint)
		item.Hint = "Use a full address such as http://192.168.1.6:8000."
		return item
	}

	address := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		address = net.JoinHostPort(u.Hostname(), port)
	}

	conn, err := c.dial("tcp", address, dialTimeout)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot reach %s", address)
		item.Hint = "Start the transcription server or fix the endpoint in settings."
		return item
	}
	_ = conn.Close()

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Reachable: %s", address)
	return item
}

// checkExportDir validates export directory existence and write access.
func (c *Checker) checkExportDir(exportDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "export_dir",
		Name: "Export directory",
	}

	if strings.TrimSpace(exportDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Export directory is empty."
		item.Hint = "Set a directory where exported transcriptions can be written."
		return item
	}

	if err := c.mkdirAll(exportDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create export directory: %s", exportDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(exportDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Export directory is not writable: %s", exportDir)
		item.Hint = "Choose a writable directory for exports."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", exportDir)
	return item
}

// checkMicrophone warns when no input device is usable. Import still works,
// so this never fails the report.
func (c *Checker) checkMicrophone() domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: "microphone", Name: "Microphone"}
	if c.probeMic == nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "Microphone support is not available."
		item.Hint = "Import audio or video files instead."
		return item
	}
	if err := c.probeMic(); err != nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("No usable input device: %v", err)
		item.Hint = "Connect a microphone and allow the app to use it."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Default input device available."
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	dial func(network, address string, timeout time.Duration) (net.Conn, error),
	probeMic func() error,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		dial:       dial,
		probeMic:   probeMic,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
