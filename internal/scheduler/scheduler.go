// Package scheduler runs a task at a fixed period on a single goroutine.
//
// Invocations never overlap: the loop calls the task synchronously and only
// reads the next tick once it returns. Ticks that arrive while the task is still
// running are coalesced by the underlying ticker.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ErrInvalidPeriod indicates a non-positive repeat period.
var ErrInvalidPeriod = errors.New("scheduler: period must be positive")

// Task is one scheduled invocation. A non-nil error ends the loop.
type Task func() error

type Scheduler struct {
	clock   clock.Clock
	period  time.Duration
	task    Task
	onError func(error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Scheduler)

// WithClock replaces the wall clock, typically with a *clock.Mock in tests.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithErrorHandler is called from the loop goroutine when the task fails.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) { s.onError = fn }
}

func New(period time.Duration, task Task, opts ...Option) (*Scheduler, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidPeriod, period)
	}
	if task == nil {
		return nil, errors.New("scheduler: nil task")
	}

	s := &Scheduler{
		clock:  clock.New(),
		period: period,
		task:   task,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Scheduler) Period() time.Duration { return s.period }

// Start begins periodic invocation. A loop that is already running is stopped
// first, so Start always leaves exactly one loop behind.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	ticker := s.clock.Ticker(s.period)

	s.cancel = cancel
	s.done = done

	go s.loop(ctx, ticker, done)
}

// Stop cancels the loop and waits for an in-flight invocation to return. It is a
// no-op when nothing is scheduled. Stop must not be called from inside the task.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// Running reports whether the loop is alive. A loop ended by a task error
// reports false even before Stop clears it.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Scheduler) loop(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if err := s.task(); err != nil {
				if s.onError != nil {
					s.onError(err)
				}
				return
			}
		}
	}
}
