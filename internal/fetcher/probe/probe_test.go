package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/crawl"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	f, err := New(Config{Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	return f
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	const body = `<html><body>write to hello@probe.test</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	res, err := newTestFetcher(t).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, body, res.HTML)
	assert.Contains(t, res.FinalURL, srv.URL)
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *crawl.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "http-404", fe.Reason)
}

func TestFetch_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestFetcher(t).Fetch(context.Background(), url)
	require.Error(t, err)

	var fe *crawl.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, crawl.ReasonRefused, fe.Reason)
}

func TestFetch_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := newTestFetcher(t).Fetch(context.Background(), "not a url")
	require.Error(t, err)
}
