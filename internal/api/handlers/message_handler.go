package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ast-secret-be/internal/services"
	"github.com/rs/zerolog/log"
)

// MessageHandler handles HTTP requests for the messages on a profile.
type MessageHandler struct {
	service services.MessageServiceProvider
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service services.MessageServiceProvider) *MessageHandler {
	return &MessageHandler{service: service}
}

// CreateMessagePayload is the body of POST /messages.
type CreateMessagePayload struct {
	UserID   string `json:"userId"`
	Content  string `json:"content"`
	IsPublic bool   `json:"isPublic"`
}

// ReactionPayload is the body of POST /messages/{id}/reactions.
type ReactionPayload struct {
	UserID       string `json:"userId"`
	ReactionType string `json:"reactionType"`
}

// ReplyPayload is the body of POST /messages/{id}/reply.
type ReplyPayload struct {
	UserID string `json:"userId"`
	Reply  string `json:"reply"`
}

// OwnerPayload is the body of POST /messages/{id}/read.
type OwnerPayload struct {
	UserID string `json:"userId"`
}

// Create handles posting an anonymous message to a profile.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateMessagePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	message, err := h.service.CreateMessage(payload.UserID, payload.Content, payload.IsPublic)
	if err != nil {
		logMessageError(err, "Failed to create message", payload.UserID, "")
		writeError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, message)
}

// List handles paging through a profile's messages, newest first.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	page, ok := queryInt(w, r, "page", services.DefaultPage)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", services.DefaultPageSize)
	if !ok {
		return
	}

	result, err := h.service.ListMessages(userID, page, limit)
	if err != nil {
		logMessageError(err, "Failed to fetch messages", userID, "")
		writeError(w, err, "Messages not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AddReaction handles reacting to a message.
func (h *MessageHandler) AddReaction(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	var payload ReactionPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	log.Info().Str("message_id", messageID).Str("reaction_type", payload.ReactionType).Msg("Adding reaction")
	message, err := h.service.AddReaction(payload.UserID, messageID, payload.ReactionType)
	if err != nil {
		logMessageError(err, "Failed to add reaction", payload.UserID, messageID)
		writeError(w, err, "Message not found")
		return
	}
	writeJSON(w, http.StatusOK, message)
}

// Delete handles removing a message from a profile.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	messageID := chi.URLParam(r, "messageId")

	success, err := h.service.DeleteMessage(userID, messageID)
	if err != nil {
		logMessageError(err, "Failed to delete message", userID, messageID)
		writeError(w, err, "Message not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": success})
}

// MarkAsRead handles flagging a message as read.
func (h *MessageHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	var payload OwnerPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	message, err := h.service.MarkAsRead(payload.UserID, messageID)
	if err != nil {
		logMessageError(err, "Failed to mark message as read", payload.UserID, messageID)
		writeError(w, err, "Message not found")
		return
	}
	writeJSON(w, http.StatusOK, message)
}

// AddReply handles the owner's reply to a message.
func (h *MessageHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	var payload ReplyPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	log.Info().Str("message_id", messageID).Msg("Adding reply")
	message, err := h.service.AddReply(payload.UserID, messageID, payload.Reply)
	if err != nil {
		logMessageError(err, "Failed to add reply", payload.UserID, messageID)
		writeError(w, err, "Message not found")
		return
	}
	writeJSON(w, http.StatusOK, message)
}

// queryInt reads an optional integer query parameter.
func queryInt(w http.ResponseWriter, r *http.Request, key string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid "+key+" parameter")
		return 0, false
	}
	return n, true
}

func logMessageError(err error, msg, userID, messageID string) {
	event := log.Error()
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrValidation) {
		event = log.Warn()
	}
	event.Err(err).Str("user_id", userID).Str("message_id", messageID).Msg(msg)
}
