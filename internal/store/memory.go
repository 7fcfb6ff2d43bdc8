package store

import (
	"sync"

	"github.com/isdelr/ast-secret-be/internal/models"
)

// Memory is the default in-process Store. Values are copied on the way
// in and out so callers never share slices with the table.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]models.User
	order    []string
	messages map[string][]models.Message
}

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]models.User),
		messages: make(map[string][]models.Message),
	}
}

func (m *Memory) GetUser(id string) (models.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *Memory) SetUser(user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		m.order = append(m.order, user.ID)
	}
	m.users[user.ID] = user
	return nil
}

func (m *Memory) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return nil
	}
	delete(m.users, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) ScanUsers(fn func(models.User) bool) error {
	m.mu.RLock()
	snapshot := make([]models.User, 0, len(m.order))
	for _, id := range m.order {
		snapshot = append(snapshot, m.users[id])
	}
	m.mu.RUnlock()

	// fn runs without the lock so it may call back into the store.
	for _, u := range snapshot {
		if !fn(u) {
			break
		}
	}
	return nil
}

func (m *Memory) GetMessages(userID string) ([]models.Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs, ok := m.messages[userID]
	if !ok {
		return nil, false, nil
	}
	return cloneMessages(msgs), true, nil
}

func (m *Memory) SetMessages(userID string, messages []models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[userID] = cloneMessages(messages)
	return nil
}

func (m *Memory) DeleteMessages(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, userID)
	return nil
}

func cloneMessages(msgs []models.Message) []models.Message {
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// MemoryClicks is the in-process ClickStore.
type MemoryClicks struct {
	mu     sync.Mutex
	clicks map[string]int64
}

// NewMemoryClicks creates an empty click counter table.
func NewMemoryClicks() *MemoryClicks {
	return &MemoryClicks{clicks: make(map[string]int64)}
}

func (c *MemoryClicks) IncrementClicks(userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clicks[userID]++
	return c.clicks[userID], nil
}

func (c *MemoryClicks) Clicks(userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clicks[userID], nil
}

func (c *MemoryClicks) ResetClicks(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clicks, userID)
	return nil
}
