package domain

// Severity selects the color of a transient notification.
type Severity string

const (
	SeverityInfo    Severity = "dark"
	SeveritySuccess Severity = "success"
	SeverityDanger  Severity = "danger"
)

// Notification is a short message shown to the user for a couple of seconds.
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}
