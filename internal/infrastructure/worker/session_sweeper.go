package worker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SweepRunner is the part of the session store the sweeper drives
type SweepRunner interface {
	Run(ctx context.Context, interval time.Duration)
}

// SessionSweeper expires idle drafts on a fixed interval
type SessionSweeper struct {
	store    SweepRunner
	interval time.Duration

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewSessionSweeper creates a sweeper for store
func NewSessionSweeper(store SweepRunner, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{store: store, interval: interval}
}

// Name implements Worker
func (s *SessionSweeper) Name() string {
	return "session-sweeper"
}

// Start launches the sweep loop. It returns once the loop is scheduled.
func (s *SessionSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("%s already running", s.Name())
	}
	s.running = true
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		s.store.Run(ctx, s.interval)
	}(s.done)
	return nil
}

// Stop waits for the loop to exit. The caller cancels the context first.
func (s *SessionSweeper) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("%s did not stop in time", s.Name())
	}
}
