// Package ring is a small completion queue for positional reads. Requests
// are submitted in batches and complete in any order; each completion carries
// the opaque tag of its request.
//
// Pool serves requests from a fixed set of goroutines calling pread(2). The
// caller owns every buffer between Submit and the matching completion and is
// expected to drive Submit and Wait from a single goroutine.
package ring

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	// ErrQueueFull is returned by Submit when the batch exceeds the free
	// queue depth.
	ErrQueueFull = errors.New("ring: submission queue full")
	// ErrIdle is returned by Wait when nothing is in flight.
	ErrIdle = errors.New("ring: no submissions in flight")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("ring: queue closed")
)

// Request is one positional read.
type Request struct {
	Fd     int
	Buf    []byte
	Offset int64
	Tag    int
}

// Completion reports the outcome of a Request.
type Completion struct {
	Tag int
	N   int
	Err error
}

// Queue accepts batches of reads and yields their completions.
type Queue interface {
	// Submit enqueues reqs in order and returns how many were accepted.
	Submit(reqs []Request) (int, error)
	// Wait blocks until one completion is available.
	Wait(ctx context.Context) (Completion, error)
	Close() error
}

type readFunc func(fd int, p []byte, offset int64) (int, error)

// Pool is a Queue backed by worker goroutines.
type Pool struct {
	depth    int
	inflight int
	closed   bool

	sq   chan Request
	cq   chan Completion
	wg   sync.WaitGroup
	read readFunc
}

// New starts a pool that keeps at most depth reads in flight. A depth below
// 1 is treated as 1.
func New(depth int) *Pool {
	return newPool(depth, unix.Pread)
}

func newPool(depth int, read readFunc) *Pool {
	if depth < 1 {
		depth = 1
	}
	p := &Pool{
		depth: depth,
		sq:    make(chan Request, depth),
		cq:    make(chan Completion, depth),
		read:  read,
	}
	p.wg.Add(depth)
	for range depth {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for req := range p.sq {
		n, err := p.read(req.Fd, req.Buf, req.Offset)
		if err != nil || n < 0 {
			n = 0
		}
		p.cq <- Completion{Tag: req.Tag, N: n, Err: err}
	}
}

// Depth returns the maximum number of reads in flight.
func (p *Pool) Depth() int { return p.depth }

// InFlight returns the number of submitted reads not yet returned by Wait.
func (p *Pool) InFlight() int { return p.inflight }

// Submit enqueues as many of reqs as the free depth allows. If some are
// rejected it returns the accepted count with ErrQueueFull.
func (p *Pool) Submit(reqs []Request) (int, error) {
	if p.closed {
		return 0, ErrClosed
	}
	n := min(len(reqs), p.depth-p.inflight)
	for _, req := range reqs[:n] {
		p.sq <- req
	}
	p.inflight += n
	if n < len(reqs) {
		return n, ErrQueueFull
	}
	return n, nil
}

// Wait returns the next completion.
func (p *Pool) Wait(ctx context.Context) (Completion, error) {
	if p.closed {
		return Completion{}, ErrClosed
	}
	if p.inflight == 0 {
		return Completion{}, ErrIdle
	}
	select {
	case c := <-p.cq:
		p.inflight--
		return c, nil
	case <-ctx.Done():
		return Completion{}, ctx.Err()
	}
}

// Close stops the workers after outstanding reads finish. Completions not
// yet returned by Wait are discarded.
func (p *Pool) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.sq)
	p.wg.Wait()
	return nil
}
