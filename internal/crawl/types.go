// Package crawl defines core types shared across the extraction subsystems.
package crawl

import (
	"context"
	"errors"
	"fmt"
)

// Navigation failure classifications surfaced to the client.
const (
	ReasonTimeout = "timeout"
	ReasonDNS     = "dns"
	ReasonRefused = "refused"
	ReasonUnknown = "unknown"
)

// HTTPReason builds the classification for an HTTP error status.
func HTTPReason(code int) string {
	return fmt.Sprintf("http-%d", code)
}

// Page is the rendered content obtained for a URL, including any contact
// subpage text that was appended.
type Page struct {
	URL          string
	FinalURL     string
	Text         string
	StatusCode   int
	UsedHeadless bool
}

// FetchError is a classified navigation failure.
type FetchError struct {
	URL    string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// Reason extracts the failure classification from err, defaulting to unknown.
func Reason(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Reason != "" {
		return fe.Reason
	}
	return ReasonUnknown
}

// Task is one unit of work: a single URL drawn from the job queue.
type Task struct {
	URL string
}

// Outcome is the per-URL result a worker reports to the orchestrator.
// Failed outcomes carry a Reason; successful ones carry the filtered emails,
// which may be empty.
type Outcome struct {
	URL    string
	Failed bool
	Reason string
	Emails []string
}

// Fetcher obtains rendered page content for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// EmailExtractor yields filtered candidate emails from page text.
type EmailExtractor interface {
	Extract(text string) []string
}
