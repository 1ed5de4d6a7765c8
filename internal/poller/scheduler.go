package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refresher runs a single refresh round. [Controller] is the production
// implementation.
type Refresher interface {
	Refresh(ctx context.Context) uint64
}

// Scheduler triggers refresh rounds.
//
// A round starts immediately on [Scheduler.Start], then on every tick of a
// fixed interval, and whenever [Scheduler.Trigger] is called. All three paths
// call the same Refresh. Every round runs on its own goroutine so a manual
// trigger supersedes an in-flight round instead of waiting behind it.
//
// All lifecycle methods (Start, Stop, Trigger) are safe for concurrent use.
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	trigger   chan struct{}
	logger    *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a new [Scheduler].
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop].
func NewScheduler(refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		trigger:   make(chan struct{}, 1),
		logger:    logger,
	}
}

// Start begins the trigger loop in a background goroutine.
//
// Start is non-blocking. If ctx is nil, context.Background() is used.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		s.launch(loopCtx, "start")

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.launch(loopCtx, "timer")
			case <-s.trigger:
				s.launch(loopCtx, "manual")
			}
		}
	}()
}

// Trigger requests an immediate round.
//
// Trigger never blocks. Requests made while one is already pending are
// coalesced into it.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Stop halts the scheduler and waits for in-flight rounds to return.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// launch runs a round in its own goroutine. Called only from the loop
// goroutine, which itself holds a wg slot, so Add never races with Wait.
func (s *Scheduler) launch(ctx context.Context, trigger string) {
	s.logger.Debug("refresh triggered", "trigger", trigger)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refresher.Refresh(ctx)
	}()
}
