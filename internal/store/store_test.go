package store

import (
	"testing"
	"time"

	"github.com/isdelr/ast-secret-be/internal/database"
	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) (*SQLite, *SQLiteClicks) {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewSQLite(db), NewSQLiteClicks(db)
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store, c ClickStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory(), NewMemoryClicks())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, c := newSQLiteStore(t)
		fn(t, s, c)
	})
}

func testUser(id, name string) models.User {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return models.User{
		ID:        id,
		Username:  name,
		CreatedAt: created,
		ExpiresAt: created.Add(24 * time.Hour),
	}
}

func TestUsers(t *testing.T) {
	backends(t, func(t *testing.T, s Store, _ ClickStore) {
		_, ok, err := s.GetUser("missing")
		require.NoError(t, err)
		assert.False(t, ok)

		u := testUser("u1", "Alice")
		require.NoError(t, s.SetUser(u))

		got, ok, err := s.GetUser("u1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, u, got)

		u.MessageCount = 3
		require.NoError(t, s.SetUser(u))
		got, _, _ = s.GetUser("u1")
		assert.Equal(t, 3, got.MessageCount)

		require.NoError(t, s.DeleteUser("u1"))
		require.NoError(t, s.DeleteUser("u1"))
		_, ok, err = s.GetUser("u1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestScanUsersKeepsInsertionOrder(t *testing.T) {
	backends(t, func(t *testing.T, s Store, _ ClickStore) {
		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, s.SetUser(testUser(id, id)))
		}
		// Updating an existing user must not move it.
		require.NoError(t, s.SetUser(testUser("c", "c")))

		var ids []string
		require.NoError(t, s.ScanUsers(func(u models.User) bool {
			ids = append(ids, u.ID)
			return true
		}))
		assert.Equal(t, []string{"c", "a", "b"}, ids)

		ids = nil
		require.NoError(t, s.ScanUsers(func(u models.User) bool {
			ids = append(ids, u.ID)
			return false
		}))
		assert.Equal(t, []string{"c"}, ids)
	})
}

func TestMessages(t *testing.T) {
	backends(t, func(t *testing.T, s Store, _ ClickStore) {
		_, ok, err := s.GetMessages("u1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.SetMessages("u1", nil))
		msgs, ok, err := s.GetMessages("u1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, msgs)

		ts := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
		in := []models.Message{
			{ID: "m2", Content: "second", Timestamp: ts.Add(time.Minute), Reactions: models.Reactions{Fire: 1}},
			{ID: "m1", Content: "first", Timestamp: ts, Reply: "thanks", ReplyTimestamp: &ts},
		}
		require.NoError(t, s.SetMessages("u1", in))

		msgs, _, err = s.GetMessages("u1")
		require.NoError(t, err)
		assert.Equal(t, in, msgs)

		require.NoError(t, s.DeleteMessages("u1"))
		require.NoError(t, s.DeleteMessages("u1"))
		_, ok, _ = s.GetMessages("u1")
		assert.False(t, ok)
	})
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	in := []models.Message{{ID: "m1", Content: "hi"}}
	require.NoError(t, m.SetMessages("u1", in))

	in[0].Content = "changed"
	got, _, _ := m.GetMessages("u1")
	assert.Equal(t, "hi", got[0].Content)

	got[0].IsRead = true
	again, _, _ := m.GetMessages("u1")
	assert.False(t, again[0].IsRead)
}

func TestClicks(t *testing.T) {
	backends(t, func(t *testing.T, _ Store, c ClickStore) {
		n, err := c.Clicks("u1")
		require.NoError(t, err)
		assert.Zero(t, n)

		for i := int64(1); i <= 3; i++ {
			n, err = c.IncrementClicks("u1")
			require.NoError(t, err)
			assert.Equal(t, i, n)
		}

		require.NoError(t, c.ResetClicks("u1"))
		n, _ = c.Clicks("u1")
		assert.Zero(t, n)
	})
}
