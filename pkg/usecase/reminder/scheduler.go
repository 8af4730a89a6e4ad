package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/utils/logging"
)

// Scheduler runs poll cycles in the background. It sleeps until the soonest
// reminder is due, but never longer than the poll interval, so writes made by
// other processes are still picked up. Writes to the garden from this process
// wake it immediately.
type Scheduler struct {
	uc       *UseCase
	plants   *repository.Plants
	interval time.Duration

	mu          sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
	unsubscribe func()
	wake        chan struct{}
}

// NewScheduler creates a Scheduler. A non-positive interval uses
// DefaultPollInterval.
func NewScheduler(uc *UseCase, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Scheduler{
		uc:       uc,
		plants:   uc.plants,
		interval: interval,
	}
}

// Start launches the poll loop. The first cycle runs immediately. It returns
// false if the loop is already running.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.wake = make(chan struct{}, 1)

	wake := s.wake
	s.unsubscribe = s.plants.OnChange(func(context.Context) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})

	go s.run(ctx, s.done, wake)
	return true
}

// Stop ends the poll loop and waits for it to exit. Stopping a scheduler that
// is not running does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return
	}

	s.unsubscribe()
	s.cancel()
	<-s.done

	s.cancel = nil
	s.done = nil
	s.unsubscribe = nil
	s.wake = nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}, wake <-chan struct{}) {
	defer close(done)

	ctx, logger := logging.Component(ctx, "scheduler")
	logger.Debug("reminder scheduler started", "interval", s.interval)
	defer logger.Debug("reminder scheduler stopped")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-wake:
		}

		_, next := s.uc.tick(ctx)
		timer.Reset(s.sleep(next))
	}
}

// sleep returns how long to wait before the next cycle
func (s *Scheduler) sleep(next time.Time) time.Duration {
	if next.IsZero() {
		return s.interval
	}
	d := next.Sub(s.uc.now())
	if d < 0 {
		d = 0
	}
	return min(d, s.interval)
}
