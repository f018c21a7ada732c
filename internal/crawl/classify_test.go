package crawl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_GoNetErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.test"}, ReasonDNS},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), ReasonRefused},
		{"deadline", context.DeadlineExceeded, ReasonTimeout},
		{"unknown", errors.New("something else"), ReasonUnknown},
		{"nil", nil, ReasonUnknown},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fe := Classify("https://example.test", tc.err)
			assert.Equal(t, tc.want, fe.Reason)
			assert.Equal(t, "https://example.test", fe.URL)
		})
	}
}

func TestClassify_BrowserErrorCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want string
	}{
		{"page load error net::ERR_NAME_NOT_RESOLVED", ReasonDNS},
		{"page load error net::ERR_CONNECTION_REFUSED", ReasonRefused},
		{"page load error net::ERR_TIMED_OUT", ReasonTimeout},
		{"page load error net::ERR_CONNECTION_TIMED_OUT", ReasonTimeout},
	}
	for _, tc := range cases {
		fe := Classify("https://example.test", errors.New(tc.text))
		assert.Equal(t, tc.want, fe.Reason, tc.text)
	}
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	fe := ClassifyStatus("https://example.test", 404)
	assert.Equal(t, "http-404", fe.Reason)
	fe = ClassifyStatus("https://example.test", 503)
	assert.Equal(t, "http-503", fe.Reason)
}

func TestReason_UnwrapsFetchError(t *testing.T) {
	t.Parallel()

	fe := Classify("https://example.test", context.DeadlineExceeded)
	wrapped := fmt.Errorf("fetch failed: %w", fe)
	assert.Equal(t, ReasonTimeout, Reason(wrapped))
	assert.Equal(t, ReasonUnknown, Reason(errors.New("plain")))
	assert.Equal(t, ReasonUnknown, Reason(nil))
}

func TestFetchError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	fe := &FetchError{URL: "https://x.test", Reason: ReasonUnknown, Err: cause}
	require.ErrorIs(t, fe, cause)
	assert.Contains(t, fe.Error(), "https://x.test")
	assert.Contains(t, fe.Error(), ReasonUnknown)

	bare := &FetchError{URL: "https://x.test", Reason: "http-500"}
	assert.Contains(t, bare.Error(), "http-500")
}
