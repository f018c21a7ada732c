package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/events"
)

// fakeController records control calls and exposes the session sink so tests
// can push events back to the client.
type fakeController struct {
	mu       sync.Mutex
	calls    []string
	startErr error
	sink     events.Sink
}

func (c *fakeController) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

func (c *fakeController) recorded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *fakeController) Start(urls []string, displayMode bool) error {
	c.record("start")
	return c.startErr
}
func (c *fakeController) Pause() error  { c.record("pause"); return nil }
func (c *fakeController) Resume() error { c.record("resume"); return nil }
func (c *fakeController) Stop() error   { c.record("stop"); return nil }
func (c *fakeController) Close()        { c.record("close") }

func newTestServer(t *testing.T, controller *fakeController) *httptest.Server {
	t.Helper()
	factory := func(sink events.Sink) Controller {
		controller.mu.Lock()
		controller.sink = sink
		controller.mu.Unlock()
		return controller
	}
	srv := httptest.NewServer(NewServer(factory, []string{"info", "test"}, prometheus.NewRegistry(), nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeController{})
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		require.NoError(t, resp.Body.Close())
	}
}

func TestConfigEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeController{})
	resp, err := http.Get(srv.URL + "/api/config")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		FakeEmailPrefixes []string `json:"fake_email_prefixes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, []string{"info", "test"}, payload.FakeEmailPrefixes)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeController{})
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}

func TestWS_DispatchesCommands(t *testing.T) {
	t.Parallel()

	controller := &fakeController{}
	srv := newTestServer(t, controller)
	conn := dialWS(t, srv)

	send := func(payload string) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
	}
	send(`{"action":"start","urls":["https://a.test"],"displayMode":true}`)
	send(`{"action":"pause"}`)
	send(`{"action":"resume"}`)
	send(`{"action":"stop"}`)

	require.Eventually(t, func() bool {
		return len(controller.recorded()) == 4
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"start", "pause", "resume", "stop"}, controller.recorded())
}

func TestWS_ForwardsEvents(t *testing.T) {
	t.Parallel()

	controller := &fakeController{}
	srv := newTestServer(t, controller)
	conn := dialWS(t, srv)

	require.Eventually(t, func() bool {
		controller.mu.Lock()
		defer controller.mu.Unlock()
		return controller.sink != nil
	}, 2*time.Second, 10*time.Millisecond)

	controller.mu.Lock()
	sink := controller.sink
	controller.mu.Unlock()
	sink.Emit(events.Progress(40))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt events.Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, events.TypeProgress, evt.Type)
	require.NotNil(t, evt.Percent)
	assert.Equal(t, 40, *evt.Percent)
}

func TestWS_RejectedCommandSurfacesWarning(t *testing.T) {
	t.Parallel()

	controller := &fakeController{startErr: errors.New("a job is already in progress")}
	srv := newTestServer(t, controller)
	conn := dialWS(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"action":"start","urls":["https://a.test"]}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt events.Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, events.TypeLog, evt.Type)
	assert.Equal(t, events.LevelWarning, evt.Level)
	assert.Contains(t, evt.Message, "already in progress")
}

func TestWS_IgnoresMalformedAndUnknown(t *testing.T) {
	t.Parallel()

	controller := &fakeController{}
	srv := newTestServer(t, controller)
	conn := dialWS(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"selfdestruct"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"pause"}`)))

	// The session survives the bad inputs and still dispatches.
	require.Eventually(t, func() bool {
		return len(controller.recorded()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"pause"}, controller.recorded())
}

func TestWS_DisconnectClosesController(t *testing.T) {
	t.Parallel()

	controller := &fakeController{}
	srv := newTestServer(t, controller)
	conn := dialWS(t, srv)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		for _, call := range controller.recorded() {
			if call == "close" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}
