// Package events defines the outbound event structures streamed to the
// controlling client, plus the sink interfaces that consume them.
package events

import "time"

// Type denotes the kind of outbound message.
type Type string

// Supported event types on the wire.
const (
	TypeLog         Type = "log"
	TypeProgress    Type = "progress"
	TypeEmail       Type = "email"
	TypeFailedURLs  Type = "failed_urls"
	TypeNoEmailURLs Type = "no_email_urls"
	TypeComplete    Type = "complete"
	TypeError       Type = "error"
)

// Level grades log events for the client console.
type Level string

// Supported log levels.
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// FailedURL records a URL that could not be fetched after retries.
type FailedURL struct {
	URL       string    `json:"url"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// NoEmailURL records a URL fetched successfully but yielding zero emails.
type NoEmailURL struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// Event is a single tagged outbound message. Exactly the fields relevant to
// Type are populated; the rest are omitted from the wire form.
type Event struct {
	Type        Type         `json:"type"`
	Message     string       `json:"message,omitempty"`
	Level       Level        `json:"level,omitempty"`
	Percent     *int         `json:"percent,omitempty"`
	Emails      []string     `json:"emails,omitempty"`
	FailedURLs  []FailedURL  `json:"failed_urls,omitempty"`
	NoEmailURLs []NoEmailURL `json:"no_email_urls,omitempty"`
}

// Log builds a log event.
func Log(level Level, message string) Event {
	return Event{Type: TypeLog, Level: level, Message: message}
}

// Progress builds a progress event. Percent is a pointer so that 0 survives
// JSON omission rules.
func Progress(percent int) Event {
	return Event{Type: TypeProgress, Percent: &percent}
}

// Email builds an email-batch event carrying newly discovered emails only.
func Email(emails []string) Event {
	return Event{Type: TypeEmail, Emails: emails}
}

// FailedURLsSnapshot builds a full-snapshot event of failed URL records.
func FailedURLsSnapshot(records []FailedURL) Event {
	return Event{Type: TypeFailedURLs, FailedURLs: records}
}

// NoEmailURLsSnapshot builds a full-snapshot event of no-email URL records.
func NoEmailURLsSnapshot(records []NoEmailURL) Event {
	return Event{Type: TypeNoEmailURLs, NoEmailURLs: records}
}

// Complete builds the terminal completion event.
func Complete(message string) Event {
	return Event{Type: TypeComplete, Message: message}
}

// Error builds an error event.
func Error(message string) Event {
	return Event{Type: TypeError, Message: message}
}
