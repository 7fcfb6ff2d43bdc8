package services

import (
	"sync"
	"testing"
	"time"

	"github.com/isdelr/ast-secret-be/internal/clock"
	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/isdelr/ast-secret-be/internal/store"
)

// recordingEvents captures emitted events for assertions.
type recordingEvents struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recordingEvents) Emit(e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEvents) ofType(t models.EventType) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store    *store.Memory
	clock    *clock.Fake
	events   *recordingEvents
	users    *UserService
	messages *MessageService
}

func newFixture(t *testing.T, opts UserOptions) *fixture {
	t.Helper()
	if opts.ExpiryWindow == 0 {
		opts.ExpiryWindow = 24 * time.Hour
	}
	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = "http://ast-secret.vercel.app"
	}
	f := &fixture{
		store:  store.NewMemory(),
		clock:  clock.NewFake(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)),
		events: &recordingEvents{},
	}
	f.users = NewUserService(f.store, f.clock, f.events, opts)
	f.messages = NewMessageService(f.users, f.events)
	return f
}
