package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/game"
	"hangmantrainer/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// EventsHandler streams a session's events over a websocket
type EventsHandler struct {
	games *service.GameService
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(games *service.GameService) *EventsHandler {
	return &EventsHandler{games: games}
}

// Stream upgrades the connection and writes every session event as a JSON message
// until the session ends or the client goes away.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())
	events, cancel, err := h.games.Subscribe(sessionID)
	if errors.Is(err, service.ErrNoSession) {
		respondWithJSONError(w, http.StatusUnauthorized, ErrNoSession, "", nil)
		return
	}
	if err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to subscribe", err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go readPump(conn, closed)
	writePump(conn, events, closed, sessionID)
}

// readPump discards client messages and keeps the read deadline alive on pongs
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, events <-chan game.Event, closed <-chan struct{}, sessionID string) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				log.Debug().Err(err).Str("session", sessionID).Msg("WebSocket write failed")
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-closed:
			return
		}
	}
}
