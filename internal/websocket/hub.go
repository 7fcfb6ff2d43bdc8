package websocket

import (
	"sync"
	"time"

	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/isdelr/ast-secret-be/internal/store"
	"github.com/rs/zerolog/log"
)

// Hub maintains the set of active clients and the per-user rooms they
// joined, and broadcasts lifecycle events to those rooms.
type Hub struct {
	mu sync.RWMutex

	// Registered clients and the rooms each one joined.
	clients map[*Client]map[string]bool

	// A map of user IDs to the set of clients subscribed to them.
	rooms map[string]map[*Client]bool

	clicks store.ClickStore
}

// NewHub creates a new Hub backed by the given click counter table.
func NewHub(clicks store.ClickStore) *Hub {
	return &Hub{
		clients: make(map[*Client]map[string]bool),
		rooms:   make(map[string]map[*Client]bool),
		clicks:  clicks,
	}
}

// Register tracks a newly connected client. It is not counted as a
// reader until it joins a room.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok && !client.removed {
		h.clients[client] = make(map[string]bool)
	}
	total := len(h.clients)
	h.mu.Unlock()
	log.Info().Int("total_clients", total).Str("client_id", client.ID).Msg("Client connected")
}

// Subscribe adds client to userID's room and pushes fresh stats to it.
func (h *Hub) Subscribe(client *Client, userID string) {
	h.mu.Lock()
	if client.removed {
		h.mu.Unlock()
		return
	}
	rooms, ok := h.clients[client]
	if !ok {
		rooms = make(map[string]bool)
		h.clients[client] = rooms
	}
	rooms[userID] = true
	if h.rooms[userID] == nil {
		h.rooms[userID] = make(map[*Client]bool)
	}
	h.rooms[userID][client] = true
	h.mu.Unlock()

	log.Info().Str("client_id", client.ID).Str("user_id", userID).Msg("Client joined room")
	h.PublishStats(userID)
}

// Unregister removes client from every room it joined, closes its send
// queue and refreshes stats for the rooms it left.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	rooms, ok := h.clients[client]
	if !ok {
		h.mu.Unlock()
		return
	}
	left := h.removeLocked(client, rooms)
	total := len(h.clients)
	h.mu.Unlock()

	log.Info().Int("total_clients", total).Str("client_id", client.ID).Msg("Client disconnected")
	h.publishStatsTo(left)
}

// removeLocked drops client from the hub and returns the rooms it was in.
func (h *Hub) removeLocked(client *Client, rooms map[string]bool) []string {
	left := make([]string, 0, len(rooms))
	for userID := range rooms {
		if subs, ok := h.rooms[userID]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.rooms, userID)
			}
		}
		left = append(left, userID)
	}
	delete(h.clients, client)
	client.removed = true
	client.close()
	return left
}

// Reply sends a frame to one client, provided the hub still holds it.
func (h *Hub) Reply(client *Client, frame []byte) {
	if frame == nil {
		return
	}

	var left []string
	h.mu.Lock()
	if !client.removed {
		select {
		case client.Send <- frame:
		default:
			log.Warn().Str("client_id", client.ID).Msg("Client send buffer full, dropping client")
			left = h.removeLocked(client, h.clients[client])
		}
	}
	h.mu.Unlock()

	h.publishStatsTo(left)
}

// BroadcastTo sends a frame to all clients subscribed to userID. Clients
// whose send buffer is full are dropped and the rooms they left get fresh
// stats.
func (h *Hub) BroadcastTo(userID string, frame []byte) {
	if frame == nil {
		return
	}

	var left []string
	h.mu.Lock()
	for client := range h.rooms[userID] {
		select {
		case client.Send <- frame:
		default:
			log.Warn().Str("client_id", client.ID).Str("user_id", userID).Msg("Client send buffer full, dropping client")
			left = append(left, h.removeLocked(client, h.clients[client])...)
		}
	}
	h.mu.Unlock()

	h.publishStatsTo(left)
}

// publishStatsTo refreshes stats once per distinct room.
func (h *Hub) publishStatsTo(rooms []string) {
	seen := make(map[string]bool, len(rooms))
	for _, userID := range rooms {
		if !seen[userID] {
			seen[userID] = true
			h.PublishStats(userID)
		}
	}
}

// ActiveReaders returns the number of connections in userID's room.
func (h *Hub) ActiveReaders(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Stats returns the current link clicks and live readers for userID.
func (h *Hub) Stats(userID string) models.Stats {
	clicks, err := h.clicks.Clicks(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to read link clicks")
	}
	return models.Stats{
		LinkClicks:    clicks,
		ActiveReaders: h.ActiveReaders(userID),
	}
}

// PublishStats pushes a statsUpdate frame to userID's room.
func (h *Hub) PublishStats(userID string) {
	h.BroadcastTo(userID, NewStatsMessage(h.Stats(userID)))
}

// RecordLinkClick counts a visit to userID's link and publishes stats.
func (h *Hub) RecordLinkClick(userID string) {
	n, err := h.clicks.IncrementClicks(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to record link click")
		return
	}
	log.Info().Str("user_id", userID).Int64("clicks", n).Msg("Link clicked")
	h.PublishStats(userID)
}

// ForgetClicks drops the click counter for userID.
func (h *Hub) ForgetClicks(userID string) {
	if err := h.clicks.ResetClicks(userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to reset link clicks")
	}
}

// PublishNewMessage announces a new message and the owner's message count.
func (h *Hub) PublishNewMessage(userID string, message models.Message, messageCount int) {
	h.BroadcastTo(userID, encode(ActionNewMessage, models.NewMessagePayload{Message: message, MessageCount: messageCount}))
}

// PublishReaction announces the full reaction counters of a message.
func (h *Hub) PublishReaction(userID, messageID string, reactions models.Reactions) {
	h.BroadcastTo(userID, encode(ActionNewReaction, models.ReactionPayload{MessageID: messageID, Reactions: reactions}))
}

// PublishReply announces the owner's reply to a message.
func (h *Hub) PublishReply(userID, messageID, reply string, replyTimestamp time.Time) {
	h.BroadcastTo(userID, encode(ActionNewReply, models.ReplyPayload{MessageID: messageID, Reply: reply, ReplyTimestamp: replyTimestamp}))
}
