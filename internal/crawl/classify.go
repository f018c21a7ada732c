package crawl

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// Classify wraps a navigation error as a FetchError with a human-readable
// reason. Browser engines report network failures as net::ERR_* codes in the
// error text, so those are matched alongside the Go net error types.
func Classify(url string, err error) *FetchError {
	return &FetchError{URL: url, Reason: reasonFor(err), Err: err}
}

// ClassifyStatus wraps an HTTP error status as a FetchError.
func ClassifyStatus(url string, code int) *FetchError {
	return &FetchError{URL: url, Reason: HTTPReason(code)}
}

func reasonFor(err error) string {
	if err == nil {
		return ReasonUnknown
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonDNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ReasonRefused
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	text := err.Error()
	switch {
	case strings.Contains(text, "ERR_NAME_NOT_RESOLVED"):
		return ReasonDNS
	case strings.Contains(text, "ERR_CONNECTION_REFUSED"):
		return ReasonRefused
	case strings.Contains(text, "ERR_TIMED_OUT"),
		strings.Contains(text, "ERR_CONNECTION_TIMED_OUT"):
		return ReasonTimeout
	default:
		return ReasonUnknown
	}
}
