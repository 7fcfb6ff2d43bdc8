package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// MessageServiceProvider defines the interface for message services.
type MessageServiceProvider interface {
	CreateMessage(userID, content string, isPublic bool) (models.Message, error)
	ListMessages(userID string, page, pageSize int) (models.PagedMessages, error)
	AddReaction(userID, messageID, reactionType string) (models.Message, error)
	DeleteMessage(userID, messageID string) (bool, error)
	MarkAsRead(userID, messageID string) (models.Message, error)
	AddReply(userID, messageID, reply string) (models.Message, error)
}

// MessageService provides business logic for the messages left on a
// user's profile. Every operation requires a live owner.
type MessageService struct {
	users  *UserService
	events EventServiceProvider
}

// NewMessageService creates a new MessageService. It shares the user
// service's store, clock and per-user locks.
func NewMessageService(users *UserService, events EventServiceProvider) *MessageService {
	return &MessageService{users: users, events: events}
}

// CreateMessage prepends a new message to the owner's list.
func (s *MessageService) CreateMessage(userID, content string, isPublic bool) (models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, fmt.Errorf("%w: content is required", ErrValidation)
	}

	unlock := s.users.locks.Lock(userID)
	defer unlock()

	user, msgs, err := s.loadLocked(userID)
	if err != nil {
		return models.Message{}, err
	}

	message := models.Message{
		ID:        uuid.New().String(),
		Content:   content,
		IsPublic:  isPublic,
		Timestamp: s.users.clock.Now(),
	}
	msgs = append([]models.Message{message}, msgs...)

	if err := s.saveLocked(user, msgs); err != nil {
		return models.Message{}, err
	}

	s.events.Emit(models.Event{
		Type:    models.EventNewMessage,
		UserID:  userID,
		Payload: models.NewMessagePayload{Message: message, MessageCount: len(msgs)},
	})
	log.Debug().Str("user_id", userID).Str("message_id", message.ID).Msg("Message created")
	return message, nil
}

// ListMessages returns one page of the owner's newest-first messages.
func (s *MessageService) ListMessages(userID string, page, pageSize int) (models.PagedMessages, error) {
	if page < 1 {
		return models.PagedMessages{}, fmt.Errorf("%w: page must be at least 1", ErrValidation)
	}
	if pageSize < 1 {
		return models.PagedMessages{}, fmt.Errorf("%w: limit must be at least 1", ErrValidation)
	}

	unlock := s.users.locks.Lock(userID)
	defer unlock()

	_, msgs, err := s.loadLocked(userID)
	if err != nil {
		return models.PagedMessages{}, err
	}
	return paginate(msgs, page, pageSize), nil
}

func paginate(msgs []models.Message, page, pageSize int) models.PagedMessages {
	total := len(msgs)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	result := models.PagedMessages{
		Data:          []models.Message{},
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalMessages: total,
	}
	// Compared as page counts so no offset is formed that could overflow.
	if page-1 >= totalPages {
		return result
	}

	start := (page - 1) * pageSize
	end := total
	if total-start > pageSize {
		end = start + pageSize
	}
	result.Data = msgs[start:end]
	result.HasMore = end < total
	return result
}

// AddReaction increments one reaction counter on a message.
func (s *MessageService) AddReaction(userID, messageID, reactionType string) (models.Message, error) {
	kind, err := models.ParseReactionKind(reactionType)
	if err != nil {
		return models.Message{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return s.mutate(userID, messageID, func(m *models.Message) error {
		return m.Reactions.Increment(kind)
	}, func(m models.Message) {
		s.events.Emit(models.Event{
			Type:    models.EventNewReaction,
			UserID:  userID,
			Payload: models.ReactionPayload{MessageID: m.ID, Reactions: m.Reactions},
		})
	})
}

// DeleteMessage removes a message. Deleting an id that is not present
// still succeeds.
func (s *MessageService) DeleteMessage(userID, messageID string) (bool, error) {
	unlock := s.users.locks.Lock(userID)
	defer unlock()

	user, msgs, err := s.loadLocked(userID)
	if err != nil {
		return false, err
	}

	kept := msgs[:0]
	for _, m := range msgs {
		if m.ID != messageID {
			kept = append(kept, m)
		}
	}

	if len(kept) == len(msgs) {
		return true, nil
	}
	if err := s.saveLocked(user, kept); err != nil {
		return false, err
	}
	log.Debug().Str("user_id", userID).Str("message_id", messageID).Msg("Message deleted")
	return true, nil
}

// MarkAsRead flags a message as read. Repeated calls are harmless.
func (s *MessageService) MarkAsRead(userID, messageID string) (models.Message, error) {
	return s.mutate(userID, messageID, func(m *models.Message) error {
		m.IsRead = true
		return nil
	}, nil)
}

// AddReply attaches the owner's reply to a message.
func (s *MessageService) AddReply(userID, messageID, reply string) (models.Message, error) {
	if strings.TrimSpace(reply) == "" {
		return models.Message{}, fmt.Errorf("%w: reply is required", ErrValidation)
	}

	now := s.users.clock.Now()
	return s.mutate(userID, messageID, func(m *models.Message) error {
		m.Reply = reply
		m.ReplyTimestamp = &now
		return nil
	}, func(m models.Message) {
		s.events.Emit(models.Event{
			Type:    models.EventNewReply,
			UserID:  userID,
			Payload: models.ReplyPayload{MessageID: m.ID, Reply: reply, ReplyTimestamp: now},
		})
	})
}

// mutate applies fn to a single message under the owner's lock and
// stores the result. after, if set, runs before the lock is released so
// events leave in the same order as the writes they describe.
func (s *MessageService) mutate(userID, messageID string, fn func(*models.Message) error, after func(models.Message)) (models.Message, error) {
	unlock := s.users.locks.Lock(userID)
	defer unlock()

	user, msgs, err := s.loadLocked(userID)
	if err != nil {
		return models.Message{}, err
	}

	for i := range msgs {
		if msgs[i].ID != messageID {
			continue
		}
		if err := fn(&msgs[i]); err != nil {
			return models.Message{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if err := s.saveLocked(user, msgs); err != nil {
			return models.Message{}, err
		}
		if after != nil {
			after(msgs[i])
		}
		return msgs[i], nil
	}
	return models.Message{}, fmt.Errorf("%w: message %s", ErrNotFound, messageID)
}

// loadLocked returns the live owner and its message list.
func (s *MessageService) loadLocked(userID string) (models.User, []models.Message, error) {
	user, err := s.users.liveUserLocked(userID)
	if err != nil {
		return models.User{}, nil, err
	}
	msgs, ok, err := s.users.store.GetMessages(userID)
	if err != nil {
		return models.User{}, nil, err
	}
	if !ok {
		return models.User{}, nil, fmt.Errorf("%w: messages for user %s", ErrNotFound, userID)
	}
	return user, msgs, nil
}

// saveLocked writes the message list and the owner's refreshed count.
func (s *MessageService) saveLocked(user models.User, msgs []models.Message) error {
	if err := s.users.store.SetMessages(user.ID, msgs); err != nil {
		return err
	}
	if user.MessageCount != len(msgs) {
		user.MessageCount = len(msgs)
		return s.users.store.SetUser(user)
	}
	return nil
}
