package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/ast-secret-be/internal/clock"
	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/isdelr/ast-secret-be/internal/store"
	"github.com/rs/zerolog/log"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(username string, usePin, isPublic bool) (models.User, error)
	GetUserByID(id string) (models.User, error)
	GetUserByUsername(username string) (models.User, error)
	CleanExpiredUsers()
}

// UserOptions tunes user creation.
type UserOptions struct {
	ExpiryWindow    time.Duration
	PublicBaseURL   string // Prefix of the shareable link, e.g. "http://ast-secret.vercel.app"
	UniqueUsernames bool   // Reject a username already held by a live user
}

// UserService provides business logic for profile lifecycle management.
type UserService struct {
	store  store.Store
	clock  clock.Clock
	events EventServiceProvider
	opts   UserOptions
	locks  *keyLock

	createMu sync.Mutex
}

// NewUserService creates a new UserService.
func NewUserService(st store.Store, clk clock.Clock, events EventServiceProvider, opts UserOptions) *UserService {
	if opts.ExpiryWindow <= 0 {
		opts.ExpiryWindow = 24 * time.Hour
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &UserService{
		store:  st,
		clock:  clk,
		events: events,
		opts:   opts,
		locks:  newKeyLock(),
	}
}

// CreateUser creates a profile and its empty message collection.
func (s *UserService) CreateUser(username string, usePin, isPublic bool) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, fmt.Errorf("%w: username is required", ErrValidation)
	}

	if s.opts.UniqueUsernames {
		// Held until the new user is stored so two signups cannot both
		// pass the check.
		s.createMu.Lock()
		defer s.createMu.Unlock()

		_, err := s.findLiveByUsername(username)
		if err == nil {
			return models.User{}, fmt.Errorf("%w: username %q is taken", ErrConflict, username)
		}
		if !errors.Is(err, ErrNotFound) {
			return models.User{}, err
		}
	}

	now := s.clock.Now()
	user := models.User{
		ID:        uuid.New().String(),
		Username:  username,
		Avatar:    models.DefaultAvatar,
		UsePin:    usePin,
		IsPublic:  isPublic,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.ExpiryWindow),
		Link:      s.opts.PublicBaseURL + "/u/" + url.PathEscape(username),
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	// The collection goes in first so a reader that sees the user always
	// finds its messages too.
	if err := s.store.SetMessages(user.ID, []models.Message{}); err != nil {
		return models.User{}, err
	}
	if err := s.store.SetUser(user); err != nil {
		s.store.DeleteMessages(user.ID)
		return models.User{}, err
	}

	log.Debug().Str("user_id", user.ID).Str("username", user.Username).Time("expires_at", user.ExpiresAt).Msg("User created")
	return user, nil
}

// GetUserByID fetches a user and refreshes its message count. Expiry is
// not checked here; the by-username path and the reaper enforce it.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	user, ok, err := s.store.GetUser(id)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return s.refreshCountLocked(user)
}

// GetUserByUsername returns the first live user whose name matches
// case-insensitively. An expired match is evicted on the spot and
// reported as not found.
func (s *UserService) GetUserByUsername(username string) (models.User, error) {
	return s.findLiveByUsername(strings.TrimSpace(username))
}

func (s *UserService) findLiveByUsername(username string) (models.User, error) {
	var match models.User
	found := false
	err := s.store.ScanUsers(func(u models.User) bool {
		if strings.EqualFold(u.Username, username) {
			match = u
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, fmt.Errorf("%w: username %q", ErrNotFound, username)
	}

	unlock := s.locks.Lock(match.ID)
	defer unlock()
	return s.liveUserLocked(match.ID)
}

// CleanExpiredUsers evicts every expired user together with its messages.
func (s *UserService) CleanExpiredUsers() {
	now := s.clock.Now()
	var expired []string
	err := s.store.ScanUsers(func(u models.User) bool {
		if u.IsExpired(now) {
			expired = append(expired, u.ID)
		}
		return true
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to scan users for expiry")
		return
	}

	evicted := 0
	for _, id := range expired {
		unlock := s.locks.Lock(id)
		// Re-read under the lock: lazy eviction may already have run.
		user, ok, err := s.store.GetUser(id)
		if err == nil && ok && user.IsExpired(s.clock.Now()) {
			err = s.evictLocked(id)
			if err == nil {
				evicted++
			}
		}
		unlock()
		if err != nil {
			log.Error().Err(err).Str("user_id", id).Msg("Failed to evict expired user")
		}
	}

	if evicted > 0 {
		log.Info().Int("evicted", evicted).Msg("Cleaned expired user data")
	}
}

// liveUserLocked loads a user that must exist and must not be expired.
// Expired users are evicted. The caller holds the user's lock.
func (s *UserService) liveUserLocked(id string) (models.User, error) {
	user, ok, err := s.store.GetUser(id)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if user.IsExpired(s.clock.Now()) {
		if err := s.evictLocked(id); err != nil {
			return models.User{}, err
		}
		return models.User{}, fmt.Errorf("%w: user %s expired", ErrNotFound, id)
	}
	return s.refreshCountLocked(user)
}

func (s *UserService) refreshCountLocked(user models.User) (models.User, error) {
	msgs, _, err := s.store.GetMessages(user.ID)
	if err != nil {
		return models.User{}, err
	}
	if user.MessageCount != len(msgs) {
		user.MessageCount = len(msgs)
		if err := s.store.SetUser(user); err != nil {
			return models.User{}, err
		}
	}
	return user, nil
}

// evictLocked removes a user and cascades to its messages. Evicting an
// absent user is a no-op.
func (s *UserService) evictLocked(id string) error {
	if err := s.store.DeleteUser(id); err != nil {
		return err
	}
	if err := s.store.DeleteMessages(id); err != nil {
		return err
	}
	log.Info().Str("user_id", id).Msg("Evicted expired user data")
	s.events.Emit(models.Event{Type: models.EventUserExpired, UserID: id})
	return nil
}
