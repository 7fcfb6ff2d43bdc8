package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/ast-secret-be/internal/models"
)

// SQLite stores users and messages as JSON documents in a SQLite
// database. Tables are created by database.Migrate.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an open, migrated database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) GetUser(id string) (models.User, bool, error) {
	var doc string
	err := s.db.QueryRow("SELECT doc FROM users WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(doc), &u); err != nil {
		return models.User{}, false, fmt.Errorf("decode user %s: %w", id, err)
	}
	return u, true, nil
}

func (s *SQLite) SetUser(user models.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO users (id, username_lower, expires_at, doc) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username_lower = excluded.username_lower, expires_at = excluded.expires_at, doc = excluded.doc`,
		user.ID, strings.ToLower(user.Username), user.ExpiresAt, string(doc))
	return err
}

func (s *SQLite) DeleteUser(id string) error {
	_, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

func (s *SQLite) ScanUsers(fn func(models.User) bool) error {
	rows, err := s.db.Query("SELECT doc FROM users ORDER BY seq")
	if err != nil {
		return err
	}

	// Drain before calling fn: the pool has a single connection and fn
	// may query the store again.
	var users []models.User
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			rows.Close()
			return err
		}
		var u models.User
		if err := json.Unmarshal([]byte(doc), &u); err != nil {
			rows.Close()
			return fmt.Errorf("decode user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, u := range users {
		if !fn(u) {
			break
		}
	}
	return nil
}

func (s *SQLite) GetMessages(userID string) ([]models.Message, bool, error) {
	var doc string
	err := s.db.QueryRow("SELECT doc FROM messages WHERE user_id = ?", userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	msgs := []models.Message{}
	if err := json.Unmarshal([]byte(doc), &msgs); err != nil {
		return nil, false, fmt.Errorf("decode messages for %s: %w", userID, err)
	}
	return msgs, true, nil
}

func (s *SQLite) SetMessages(userID string, messages []models.Message) error {
	if messages == nil {
		messages = []models.Message{}
	}
	doc, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO messages (user_id, doc) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET doc = excluded.doc`, userID, string(doc))
	return err
}

func (s *SQLite) DeleteMessages(userID string) error {
	_, err := s.db.Exec("DELETE FROM messages WHERE user_id = ?", userID)
	return err
}

// SQLiteClicks is a ClickStore on the link_clicks table.
type SQLiteClicks struct {
	db *sql.DB
}

// NewSQLiteClicks wraps an open, migrated database.
func NewSQLiteClicks(db *sql.DB) *SQLiteClicks {
	return &SQLiteClicks{db: db}
}

func (c *SQLiteClicks) IncrementClicks(userID string) (int64, error) {
	var n int64
	err := c.db.QueryRow(`
		INSERT INTO link_clicks (user_id, clicks) VALUES (?, 1)
		ON CONFLICT(user_id) DO UPDATE SET clicks = clicks + 1
		RETURNING clicks`, userID).Scan(&n)
	return n, err
}

func (c *SQLiteClicks) Clicks(userID string) (int64, error) {
	var n int64
	err := c.db.QueryRow("SELECT clicks FROM link_clicks WHERE user_id = ?", userID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

func (c *SQLiteClicks) ResetClicks(userID string) error {
	_, err := c.db.Exec("DELETE FROM link_clicks WHERE user_id = ?", userID)
	return err
}
