// Package platform holds the desktop boundaries used outside the webview:
// system clipboard and native notifications.
package platform

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"

	"audio-transcription/internal/domain"
	"audio-transcription/internal/events"
)

// AppTitle heads native notifications.
const AppTitle = "Audio Transcription"

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteText copies text to the clipboard.
func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not supported on this system")
	}
	return clipboard.WriteAll(text)
}

// Notifier shows notification events as native desktop notifications.
type Notifier struct {
	notify func(title, message string) error
	log    zerolog.Logger
}

// NewNotifier creates a beeep-backed notifier.
func NewNotifier(log zerolog.Logger) *Notifier {
	return &Notifier{
		notify: func(title, message string) error { return beeep.Notify(title, message, "") },
		log:    log,
	}
}

// Listen is an events.Listener forwarding notification events.
func (n *Notifier) Listen(e events.Event) {
	if e.Type != events.TypeNotification || e.Notification == nil {
		return
	}

	title := AppTitle
	if e.Notification.Severity == domain.SeverityDanger {
		title += " - Error"
	}
	if err := n.notify(title, e.Notification.Message); err != nil {
		n.log.Debug().Err(err).Msg("desktop notification unavailable")
	}
}
