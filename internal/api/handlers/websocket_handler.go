package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	ws "github.com/isdelr/ast-secret-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades HTTP connections and routes client actions
// to the hub.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. allowedOrigin "*"
// accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigin),
		},
	}
}

func checkOrigin(allowed string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin.
		return allowed == "*" || origin == "" || origin == allowed
	}
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		// A WritePump failure closes the connection, so ReadPump always
		// returns on disconnect. Unregister closes Send, stopping WritePump.
		h.hub.Unregister(client)
	}()
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Str("client_id", client.ID).Msg("Error decoding websocket message")
		h.hub.Reply(client, ws.NewErrorMessage("Invalid message"))
		return
	}

	switch msg.Action {
	case ws.ActionJoin, ws.ActionGetStats, ws.ActionLinkClicked:
	default:
		log.Warn().Str("action", msg.Action).Str("client_id", client.ID).Msg("Unknown websocket action received")
		h.hub.Reply(client, ws.NewErrorMessage("Unknown action: "+msg.Action))
		return
	}

	userID := msg.UserID()
	if userID == "" {
		h.hub.Reply(client, ws.NewErrorMessage("userId is required for "+msg.Action))
		return
	}

	switch msg.Action {
	case ws.ActionJoin:
		h.hub.Subscribe(client, userID)
	case ws.ActionGetStats:
		h.hub.PublishStats(userID)
	case ws.ActionLinkClicked:
		h.hub.RecordLinkClick(userID)
	}
}
