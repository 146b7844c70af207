// Package schedule drives the tick loop from a wall-clock timer.
//
// The timer fires at absolute boundaries that are multiples of the interval
// (every full or half second for the default interval). A discontinuous
// change of the system clock cancels the timer; the scheduler absorbs that by
// recomputing the next boundary and rearming, without producing a tick.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ErrClockChanged is returned by Timer.Wait when the wall clock was set
// while the timer was armed.
var ErrClockChanged = errors.New("schedule: clock changed")

// Timer is an absolute wall-clock timer.
type Timer interface {
	// Arm sets the timer to expire at first and every interval thereafter.
	Arm(first time.Time, interval time.Duration) error
	// Wait blocks until the timer expires and returns the number of
	// expirations since the last Wait.
	Wait(ctx context.Context) (uint64, error)
	Close() error
}

// State is the scheduler state.
type State int

const (
	// Disarmed is the state before Start.
	Disarmed State = iota
	// Armed means the timer is set and ticks are delivered.
	Armed
	// Misfired means the clock changed and the timer needs rearming.
	Misfired
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Misfired:
		return "misfired"
	default:
		return "disarmed"
	}
}

// NextBoundary returns the first multiple of interval strictly after now.
// Multiples are counted from the zero Time, which only lines up with the
// wall clock for intervals that divide 24h.
func NextBoundary(now time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		return now
	}
	return now.Truncate(interval).Add(interval)
}

// Config configures a Scheduler.
type Config struct {
	Interval time.Duration
	// Now returns the wall-clock time. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Scheduler arms a Timer on interval boundaries and delivers ticks.
type Scheduler struct {
	timer    Timer
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	state    State
	misfires int
	next     time.Time
	tick     time.Time
}

// New creates a scheduler around timer.
func New(timer Timer, cfg Config) *Scheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		timer:    timer,
		interval: cfg.Interval,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
}

// Start arms the timer for the next boundary.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("schedule: invalid interval %v", s.interval)
	}
	first := NextBoundary(s.now(), s.interval)
	if err := s.timer.Arm(first, s.interval); err != nil {
		return fmt.Errorf("schedule: arm timer: %w", err)
	}
	s.state = Armed
	s.next = first
	s.logger.Debug("timer armed", "first", first, "interval", s.interval)
	return nil
}

// Wait blocks until the next tick. Clock changes are absorbed by rearming.
// It returns the number of expirations covered by the tick; more than one
// means ticks were missed.
func (s *Scheduler) Wait(ctx context.Context) (uint64, error) {
	for {
		n, err := s.timer.Wait(ctx)
		switch {
		case err == nil:
			if n > 1 {
				s.logger.Debug("ticks missed", "expirations", n)
			}
			s.advance(n)
			return n, nil
		case errors.Is(err, ErrClockChanged):
			s.state = Misfired
			s.misfires++
			s.logger.Info("clock changed, rearming timer", "misfires", s.misfires)
			if err := s.Start(); err != nil {
				return 0, err
			}
		case ctx.Err() != nil:
			return 0, ctx.Err()
		default:
			return 0, fmt.Errorf("schedule: wait: %w", err)
		}
	}
}

// advance moves the tick to the last of n expired boundaries.
func (s *Scheduler) advance(n uint64) {
	if n == 0 {
		n = 1
	}
	s.tick = s.next.Add(time.Duration(n-1) * s.interval)
	s.next = s.tick.Add(s.interval)
}

// Tick returns the boundary of the most recent tick, or the zero Time before
// the first one.
func (s *Scheduler) Tick() time.Time { return s.tick }

// State returns the current state.
func (s *Scheduler) State() State { return s.state }

// Misfires returns how often the timer was cancelled by a clock change.
func (s *Scheduler) Misfires() int { return s.misfires }

// Close releases the timer.
func (s *Scheduler) Close() error {
	s.state = Disarmed
	return s.timer.Close()
}
