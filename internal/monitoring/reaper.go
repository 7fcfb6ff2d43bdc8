package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/ast-secret-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultSchedule sweeps once an hour.
const DefaultSchedule = "@every 1h"

// Reaper periodically evicts expired users and their messages.
type Reaper struct {
	users services.UserServiceProvider
	cron  *cron.Cron
	done  chan struct{}

	mu       sync.Mutex
	stopped  bool
	sweeping sync.WaitGroup
	stopOnce sync.Once
}

// NewReaper creates a reaper running on a robfig/cron schedule such as
// "@every 1h" or "0 * * * *".
func NewReaper(users services.UserServiceProvider, schedule string) (*Reaper, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	r := &Reaper{
		users: users,
		// Overlapping sweeps would only contend for the same locks.
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		done: make(chan struct{}),
	}
	if _, err := r.cron.AddFunc(schedule, r.sweep); err != nil {
		return nil, fmt.Errorf("invalid reaper schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Run sweeps once, then follows the schedule until Stop is called. It
// returns at once if Stop came first.
func (r *Reaper) Run() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	log.Info().Msg("Starting expiry reaper")
	r.cron.Start()
	r.sweeping.Add(1)
	r.mu.Unlock()

	r.sweep()
	r.sweeping.Done()
	<-r.done
}

// Stop halts the schedule and waits for any in-flight sweep, including
// the one Run starts with.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()

		<-r.cron.Stop().Done()
		r.sweeping.Wait()
		close(r.done)
		log.Info().Msg("Stopped expiry reaper")
	})
}

func (r *Reaper) sweep() {
	start := time.Now()
	r.users.CleanExpiredUsers()
	log.Debug().Dur("took", time.Since(start)).Msg("Expiry sweep finished")
}
