// internal/httpserver/ws.go
//
// GET /attempts/{id}/ws streams an attempt over a websocket. Each inbound
// text message is one frame (a gesture or check/continue/skip). Frames are
// applied in arrival order, each with the attempt locked, and answered with
//
//	{"type":"view", ...result}   on success
//	{"type":"error","error":...} otherwise (the connection stays open)
//
// The first message sent is the current view.

package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lingo/internal/store"
)

const wsReadLimit = 4096

// wsMessage is an outbound websocket message.
type wsMessage struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
	result
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == s.opts.ClientOrigin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

func (s *Server) handleAttemptWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := s.loadAttempt(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	e.Lock()
	owned := s.owns(r, e)
	e.Unlock()
	if !owned {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("attempt", id).Msg("websocket upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	l := log.With().Str("attempt", id).Logger()
	l.Info().Msg("websocket connected")
	defer l.Info().Msg("websocket disconnected")

	e.Lock()
	first := wsMessage{Type: "view", result: result{View: e.Ctrl.View()}}
	e.Unlock()
	if err := conn.WriteJSON(first); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.Debug().Err(err).Msg("websocket read")
			}
			return
		}
		var msg wsMessage
		e, msg = s.wsApply(e, data)
		if err := conn.WriteJSON(msg); err != nil {
			l.Debug().Err(err).Msg("websocket write")
			return
		}
	}
}

// wsApply decodes and applies one frame against the live entry for the
// attempt, which replaces e if the attempt was swept and restored since the
// last frame.
func (s *Server) wsApply(e *store.Entry, data []byte) (*store.Entry, wsMessage) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return e, wsMessage{Type: "error", Error: errBadFrame.Error()}
	}

	ctx, cancel := background()
	defer cancel()
	e = s.current(ctx, e)
	e.Lock()
	defer e.Unlock()
	res, err := s.apply(ctx, e, f)
	if err != nil {
		return e, wsMessage{Type: "error", Error: errorCode(err), result: result{View: e.Ctrl.View()}}
	}
	return e, wsMessage{Type: "view", result: res}
}
