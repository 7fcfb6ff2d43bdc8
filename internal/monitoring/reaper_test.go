package monitoring

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/isdelr/ast-secret-be/internal/clock"
	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/isdelr/ast-secret-be/internal/services"
	"github.com/isdelr/ast-secret-be/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingUsers struct {
	services.UserServiceProvider
	sweeps atomic.Int32
}

func (c *countingUsers) CleanExpiredUsers() { c.sweeps.Add(1) }

type noEvents struct{}

func (noEvents) Emit(models.Event) {}

func TestReaperSweepsOnStart(t *testing.T) {
	users := &countingUsers{}
	r, err := NewReaper(users, "@every 1h")
	require.NoError(t, err)

	go r.Run()
	assert.Eventually(t, func() bool { return users.sweeps.Load() == 1 }, time.Second, 10*time.Millisecond)

	r.Stop()
	r.Stop()
}

func TestReaperRejectsBadSchedule(t *testing.T) {
	_, err := NewReaper(&countingUsers{}, "every now and then")
	assert.Error(t, err)
}

func TestReaperEvictsExpiredUsers(t *testing.T) {
	st := store.NewMemory()
	clk := clock.NewFake(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	users := services.NewUserService(st, clk, noEvents{}, services.UserOptions{ExpiryWindow: time.Hour})

	old, err := users.CreateUser("old", false, false)
	require.NoError(t, err)
	clk.Advance(30 * time.Minute)
	fresh, err := users.CreateUser("fresh", false, false)
	require.NoError(t, err)
	clk.Advance(45 * time.Minute)

	r, err := NewReaper(users, "")
	require.NoError(t, err)
	r.sweep()

	_, ok, err := st.GetUser(old.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = st.GetMessages(old.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = st.GetUser(fresh.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

type blockingUsers struct {
	services.UserServiceProvider
	started chan struct{}
	release chan struct{}
}

func (b *blockingUsers) CleanExpiredUsers() {
	close(b.started)
	<-b.release
}

func TestReaperStopWaitsForStartupSweep(t *testing.T) {
	users := &blockingUsers{started: make(chan struct{}), release: make(chan struct{})}
	r, err := NewReaper(users, "@every 1h")
	require.NoError(t, err)

	go r.Run()
	<-users.started

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the startup sweep was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(users.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the sweep finished")
	}
}

func TestReaperStopBeforeRun(t *testing.T) {
	users := &countingUsers{}
	r, err := NewReaper(users, "@every 1h")
	require.NoError(t, err)

	r.Stop()

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, int32(0), users.sweeps.Load())
}
