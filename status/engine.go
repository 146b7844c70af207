package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"

	"gitlab.com/tinyland/lab/pulse-status/entry"
	"gitlab.com/tinyland/lab/pulse-status/internal/format"
)

// Ticker delivers ticks. *schedule.Scheduler implements it.
type Ticker interface {
	Start() error
	Wait(ctx context.Context) (uint64, error)
	// Tick returns the boundary of the last tick, or the zero Time if the
	// ticker has none.
	Tick() time.Time
}

// Config wires an Engine.
type Config struct {
	Ticker   Ticker
	Round    *Round
	Composer *Composer
	Registry *entry.Registry
	Out      io.Writer
	// Now stamps lines when the ticker reports no boundary. Defaults to
	// time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Engine is the tick loop.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	lines  uint64
}

// NewEngine creates an engine from cfg.
func NewEngine(cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{cfg: cfg, logger: cfg.Logger}
}

// Run starts the ticker and emits one line per tick. It returns nil once the
// output is closed or ctx is done, and an error if the timer or the output
// fails otherwise.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.cfg.Ticker.Start(); err != nil {
		return fmt.Errorf("status: %w", err)
	}

	for {
		if _, err := e.cfg.Ticker.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("status: %w", err)
		}

		start := time.Now()
		if err := e.cfg.Round.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		line := e.cfg.Composer.Compose(e.cfg.Registry.Entries, e.stamp())
		n, err := e.cfg.Out.Write(line)
		if outputClosed(n, err) {
			e.logger.Info("output closed", "lines", e.lines)
			return nil
		}
		if err != nil {
			return fmt.Errorf("status: write line: %w", err)
		}
		e.lines++
		e.logger.Debug("tick", "line", e.lines, "took", format.Duration(time.Since(start)))
	}
}

// stamp is the time shown on the current line. It is the tick boundary, so a
// slow round does not shift the clock field.
func (e *Engine) stamp() time.Time {
	if t := e.cfg.Ticker.Tick(); !t.IsZero() {
		return t
	}
	return e.cfg.Now()
}

// Lines returns the number of lines written.
func (e *Engine) Lines() uint64 { return e.lines }

func outputClosed(n int, err error) bool {
	if err == nil {
		return n == 0
	}
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}
