package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"stuffbox-backend/internal/middleware"
	"stuffbox-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // bearer token in the query is the gate, not the origin
	},
}

// WebSocketHandler registers authenticated viewers with the hub so activity on
// their content reaches them live
type WebSocketHandler struct {
	hub  *services.WSHub
	auth middleware.Authenticator
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, auth middleware.Authenticator) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, auth: auth}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	userID, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		handleError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	if err := h.hub.Register(userID, conn); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register WebSocket connection")
		return
	}
	defer h.hub.Unregister(userID, conn)

	if err := h.hub.SendToUser(userID, services.WSMessage{Type: services.EventConnected}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send connected message")
		return
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	// the channel is push only; anything the client sends is answered with an error event
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendError(userID, "Invalid message format")
			continue
		}
		h.sendError(userID, "Unknown message type")
	}
}

func (h *WebSocketHandler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

// sendError sends an error message to a user
func (h *WebSocketHandler) sendError(userID, message string) {
	msg := services.WSMessage{
		Type:    services.EventError,
		Message: message,
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send error message")
	}
}
