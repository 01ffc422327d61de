// Package session owns the run lifecycle of one simulation: it wires the
// simulator to a scheduler, emits the per-tick diagnostic line and notifies
// renderers after each tick.
//
// Lifecycle:
//
//	Stopped --Start--> Running      (full reset, then periodic ticks)
//	Running --Start--> Running      (restart: stop, reset, start)
//	Running --Stop---> Stopped      (no tick runs after Stop returns)
//	Stopped --Stop---> Stopped      (no-op)
//	any     --Restart> Running      (always a full reset)
//
// All methods are safe for concurrent use. The scheduler goroutine is the only
// caller of Tick; every other access to the simulator goes through the same mutex.
package session

import (
	"io"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/scheduler"
	"github.com/san-kum/pidlab/internal/sim"
)

type RunState int

const (
	Stopped RunState = iota
	Running
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	default:
		return "stopped"
	}
}

type Session struct {
	lifecycle sync.Mutex // serializes Start/Stop/Restart

	mu        sync.Mutex // guards sim, observers and tickErr
	sim       *sim.Simulator
	observers []sim.Observer
	tickErr   error

	sched  *scheduler.Scheduler
	clock  clock.Clock
	logger golog.Logger
	diag   *sim.DiagnosticWriter
}

type Option func(*Session)

func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithLogger(l golog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithDiagnostics sends the per-tick y=..;v=..;pid=..; line to w. Without it the
// line is logged at debug level.
func WithDiagnostics(w io.Writer) Option {
	return func(s *Session) { s.diag = sim.NewDiagnosticWriter(w) }
}

// WithObserver registers a post-tick hook, typically a renderer.
func WithObserver(o sim.Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

func New(simulator *sim.Simulator, opts ...Option) (*Session, error) {
	s := &Session{
		sim:   simulator,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = golog.Global()
	}

	sched, err := scheduler.New(simulator.Config().Period, s.tick,
		scheduler.WithClock(s.clock),
		scheduler.WithErrorHandler(s.onTickError),
	)
	if err != nil {
		return nil, err
	}
	s.sched = sched
	return s, nil
}

// AddObserver registers a post-tick hook after construction.
func (s *Session) AddObserver(o sim.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Start resets the simulation and begins ticking. While running it behaves as
// Restart.
func (s *Session) Start() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.sched.Running() {
		s.logger.Debug("start while running, restarting")
	}
	s.startLocked()
}

// Stop cancels periodic ticking. From Stopped it only clears the schedule.
func (s *Session) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	wasRunning := s.sched.Running()
	s.sched.Stop()
	if wasRunning {
		s.logger.Infof("session stopped at tick %d", s.Snapshot().Tick)
	}
}

// Restart stops a running session and starts it again from a full reset.
func (s *Session) Restart() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.sched.Stop()
	s.startLocked()
}

func (s *Session) startLocked() {
	s.sched.Stop()

	s.mu.Lock()
	s.sim.Reset()
	s.tickErr = nil
	p, load := s.sim.Params(), s.sim.Load()
	s.mu.Unlock()

	s.sched.Start()
	s.logger.Infof("session started: period=%v reference=%v kp=%v ki=%v kd=%v load=%v",
		s.sched.Period(), p.Reference, p.Kp, p.Ki, p.Kd, load)
}

func (s *Session) State() RunState {
	if s.sched.Running() {
		return Running
	}
	return Stopped
}

// Configure replaces the controller parameters and load; the next tick uses them.
func (s *Session) Configure(p control.Params, load float64) {
	s.mu.Lock()
	s.sim.Configure(p, load)
	s.mu.Unlock()

	s.logger.Debugf("configured reference=%v kp=%v ki=%v kd=%v load=%v", p.Reference, p.Kp, p.Ki, p.Kd, load)
}

func (s *Session) Params() (control.Params, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Params(), s.sim.Load()
}

func (s *Session) Snapshot() sim.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Snapshot()
}

// Config is the simulator configuration; it never changes after construction.
func (s *Session) Config() sim.Config { return s.sim.Config() }

// Err reports the failure that ended the last run, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickErr
}

// Close stops the session and returns any tick or diagnostic stream failure.
func (s *Session) Close() error {
	s.Stop()

	err := s.Err()
	if s.diag != nil {
		err = multierr.Append(err, s.diag.Err())
	}
	return err
}

func (s *Session) tick() error {
	s.mu.Lock()
	snap, err := s.sim.TickPeriod()
	observers := s.observers
	s.mu.Unlock()

	if err != nil {
		return err
	}

	if s.diag != nil {
		s.diag.OnTick(snap)
	} else {
		s.logger.Debugw("tick", "n", snap.Tick, "diagnostic", sim.FormatDiagnostic(snap.Plant))
	}
	for _, o := range observers {
		o.OnTick(snap)
	}
	return nil
}

func (s *Session) onTickError(err error) {
	s.mu.Lock()
	s.tickErr = err
	s.mu.Unlock()

	s.logger.Errorw("simulation halted", "error", err)
}
