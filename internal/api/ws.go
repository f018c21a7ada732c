package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The service fronts a local dashboard; origin checks are the
		// deployment proxy's job.
		return true
	},
}

// command is an inbound control message.
type command struct {
	Action      string   `json:"action"`
	URLs        []string `json:"urls"`
	DisplayMode bool     `json:"displayMode"`
}

// session binds one websocket connection to one controller. It is the
// outbound event sink for that controller and the reader of its commands.
// The connection stays open across jobs; a new start reuses the session.
type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	logger  *zap.Logger
}

// Emit implements events.Sink. Writes are serialized per connection; events
// already arrive in emission order from the orchestrator's single writer.
func (s *session) Emit(evt events.Event) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(evt); err != nil {
		s.logger.Debug("websocket write failed", zap.Error(err))
	}
}

// handleWS upgrades the connection and runs the command read loop until the
// client disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := &session{conn: conn, logger: s.logger}
	controller := s.newController(sess)
	defer func() {
		controller.Close()
		if cerr := conn.Close(); cerr != nil {
			s.logger.Debug("websocket close failed", zap.Error(cerr))
		}
	}()

	s.logger.Info("control session opened", zap.String("remote", conn.RemoteAddr().String()))
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info("control session closed", zap.Error(err))
			return
		}
		s.dispatch(sess, controller, payload)
	}
}

// dispatch routes one inbound command. Unknown or malformed commands are
// ignored with a warning, never fatal to the session.
func (s *Server) dispatch(sess *session, controller Controller, payload []byte) {
	var cmd command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		s.logger.Warn("malformed control command ignored", zap.Error(err))
		return
	}

	var err error
	switch cmd.Action {
	case "start":
		err = controller.Start(cmd.URLs, cmd.DisplayMode)
	case "pause":
		err = controller.Pause()
	case "resume":
		err = controller.Resume()
	case "stop":
		err = controller.Stop()
	default:
		s.logger.Warn("unknown control command ignored", zap.String("action", cmd.Action))
		return
	}
	if err != nil {
		s.logger.Warn("control command rejected",
			zap.String("action", cmd.Action),
			zap.Error(err),
		)
		sess.Emit(events.Log(events.LevelWarning, err.Error()))
	}
}
