package services

import (
	"testing"
	"time"

	"github.com/isdelr/ast-secret-be/internal/clock"
	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventServiceStampsAndQueues(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewEventService(clk, 4)

	s.Emit(models.Event{Type: models.EventNewMessage, UserID: "u1"})

	select {
	case e := <-s.Events():
		assert.Equal(t, models.EventNewMessage, e.Type)
		assert.Equal(t, clk.Now(), e.CreatedAt)
	default:
		t.Fatal("expected a queued event")
	}
}

func TestEventServiceDropsWhenFull(t *testing.T) {
	s := NewEventService(clock.Real(), 2)
	for i := 0; i < 5; i++ {
		s.Emit(models.Event{Type: models.EventNewReply, UserID: "u1"})
	}
	assert.Len(t, s.Events(), 2)
}

func TestEventServiceClose(t *testing.T) {
	s := NewEventService(clock.Real(), 2)
	s.Emit(models.Event{Type: models.EventNewReply})
	s.Close()
	s.Close()

	// Emitting after close is ignored rather than panicking.
	s.Emit(models.Event{Type: models.EventNewReply})

	_, ok := <-s.Events()
	require.True(t, ok)
	_, ok = <-s.Events()
	assert.False(t, ok)
}
