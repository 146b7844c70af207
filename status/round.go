// Package status runs the collection loop: on every tick it reads all
// sources in one batch, feeds the completions into their entries and writes
// the composed line.
package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gitlab.com/tinyland/lab/pulse-status/entry"
	"gitlab.com/tinyland/lab/pulse-status/ring"
)

// Round performs one submit and drain cycle over every source of a
// registry.
type Round struct {
	reg    *entry.Registry
	queue  ring.Queue
	logger *slog.Logger

	reqs     []ring.Request
	rejected int
}

// NewRound creates a Round. If logger is nil, a no-op logger is used.
func NewRound(reg *entry.Registry, queue ring.Queue, logger *slog.Logger) *Round {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Round{
		reg:    reg,
		queue:  queue,
		logger: logger,
		reqs:   make([]ring.Request, 0, len(reg.Sources)),
	}
}

// Run submits one read per source, tagged with the source index, and waits
// for all of them. When the queue is shallower than the number of sources the
// remaining reads are submitted as completions free up. Reads the queue
// refuses while none of this round's reads is in flight are counted as
// rejected; their sources keep the previous values.
func (r *Round) Run(ctx context.Context) error {
	r.reqs = r.reqs[:0]
	for i, src := range r.reg.Sources {
		r.reqs = append(r.reqs, ring.Request{
			Fd:  src.Fd(),
			Buf: src.Prepare(),
			Tag: i,
		})
	}

	pending := r.reqs
	inflight := 0
	for len(pending) > 0 || inflight > 0 {
		if len(pending) > 0 {
			n, err := r.queue.Submit(pending)
			if err != nil && !errors.Is(err, ring.ErrQueueFull) {
				return fmt.Errorf("status: submit: %w", err)
			}
			pending = pending[n:]
			inflight += n
			if inflight == 0 {
				r.rejected += len(pending)
				r.logger.Debug("submissions rejected", "skipped", len(pending))
				return nil
			}
		}

		c, err := r.queue.Wait(ctx)
		if err != nil {
			return fmt.Errorf("status: wait for completion: %w", err)
		}
		inflight--
		r.reg.Complete(c.Tag, c.N, c.Err)
	}
	return nil
}

// Rejected returns the total number of submissions rejected so far.
func (r *Round) Rejected() int { return r.rejected }
