// Package entry resolves specifiers into the ordered list of status line
// entries and owns the sources they sample.
//
// Sources are opened once by Build and stay open for the life of the
// Registry. A source that cannot be opened drops the entries that need it
// without failing the build. Two specifiers that read the same file (by
// device and inode) share one Source and one read per round.
package entry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"gitlab.com/tinyland/lab/pulse-status/extract"
	"gitlab.com/tinyland/lab/pulse-status/internal/format"
	"gitlab.com/tinyland/lab/pulse-status/linebuf"
	"gitlab.com/tinyland/lab/pulse-status/pipeline"
	"gitlab.com/tinyland/lab/pulse-status/specifier"
)

// NoSource marks an entry that is not backed by a single file: the clock,
// or a value derived from several sources.
const NoSource = -1

// RateLimits holds RateLimit periods in ticks per entry family.
type RateLimits struct {
	Load     int
	Pressure int
	Memory   int
	Battery  int
}

// Precisions holds the decimals rendered per entry family. Battery applies
// to the time remaining estimate.
type Precisions struct {
	Load     int
	Pressure int
	Memory   int
	Battery  int
}

// Options configures Build.
type Options struct {
	ProcRoot   string
	SysRoot    string
	DateLayout string
	RateLimit  RateLimits
	Smoothing  pipeline.Smoothing
	Precision  Precisions
	Logger     *slog.Logger

	// Open opens a source file. Defaults to os.Open.
	Open func(path string) (*os.File, error)
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ProcRoot:   "/proc",
		SysRoot:    "/sys",
		DateLayout: "%Y-%m-%d %H:%M:%S",
		RateLimit:  RateLimits{Load: 10, Pressure: 10, Memory: 10, Battery: 30},
		Smoothing:  pipeline.DefaultSmoothing(),
		Precision:  Precisions{Load: 2, Pressure: 2, Memory: 1, Battery: 1},
	}
}

// Entry is one field of the status line.
type Entry struct {
	Label string
	// Source indexes Registry.Sources, or is NoSource for the clock.
	Source int

	pipe   *pipeline.Pipeline
	layout string
	derive func() string
}

// Fragment returns the entry's current display text.
func (e *Entry) Fragment(now time.Time) string {
	if e.derive != nil {
		return e.derive()
	}
	if e.Source == NoSource {
		return format.Clock(e.layout, now)
	}
	return e.pipe.Display()
}

// Registry holds the sources and entries built from a set of specifiers.
type Registry struct {
	Sources []*Source
	Entries []*Entry
	// Dropped lists the paths that could not be opened.
	Dropped []string

	opts   Options
	logger *slog.Logger
	byKey  map[fileKey]int
}

// Build parses specs in order and builds their entries. Unknown main or sub
// specifiers are fatal; unavailable sources are not.
func Build(specs []string, opts Options) (*Registry, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Open == nil {
		opts.Open = os.Open
	}

	r := &Registry{
		opts:   opts,
		logger: opts.Logger,
		byKey:  make(map[fileKey]int),
	}
	for _, raw := range specs {
		if err := r.apply(specifier.Parse(raw)); err != nil {
			r.Close()
			return nil, fmt.Errorf("entry: %q: %w", raw, err)
		}
	}

	r.logger.Debug("entries built",
		"entries", len(r.Entries),
		"sources", len(r.Sources),
		"dropped", len(r.Dropped),
		"buffers", humanize.IBytes(r.bufferBytes()),
	)
	return r, nil
}

func (r *Registry) apply(spec specifier.Spec) error {
	main, err := spec.Resolve()
	if err != nil {
		return err
	}

	switch main {
	case specifier.DateTime:
		if err := spec.NoSubs(); err != nil {
			return err
		}
		r.Entries = append(r.Entries, &Entry{Source: NoSource, layout: r.opts.DateLayout})
	case specifier.Load:
		if err := spec.NoSubs(); err != nil {
			return err
		}
		r.addLoad()
	case specifier.Pressure:
		psis, err := spec.PSIs()
		if err != nil {
			return err
		}
		for _, p := range psis {
			r.addPressure(p)
		}
	case specifier.Memory:
		items, err := spec.MemItems()
		if err != nil {
			return err
		}
		for _, item := range items {
			r.addMemory(item)
		}
	case specifier.Battery:
		for _, name := range r.supplies(spec.Subs) {
			r.addBattery(name)
		}
	}
	return nil
}

func (r *Registry) addLoad() {
	out := pipeline.Format{Label: "load", Precision: r.opts.Precision.Load}
	r.add(r.procPath("loadavg"), loadavgSize, "load", pipeline.New(
		pipeline.Token(' '), out,
		pipeline.RateLimit(r.opts.RateLimit.Load),
	))
}

func (r *Registry) addPressure(p specifier.PSI) {
	out := pipeline.Format{Label: p.Label(), Precision: r.opts.Precision.Pressure}
	r.add(r.procPath("pressure", p.File()), psiSize, p.Label(), pipeline.New(
		pipeline.Pressure(), out,
		pipeline.RateLimit(r.opts.RateLimit.Pressure),
	))
}

func (r *Registry) addMemory(item specifier.MemItem) {
	r.add(r.procPath("meminfo"), meminfoSize, item.Label(), pipeline.New(
		pipeline.Memory(item.Key()), pipeline.Format{Label: item.Label()},
		pipeline.RateLimit(r.opts.RateLimit.Memory),
		pipeline.MovingAverage(r.opts.Smoothing),
		pipeline.Autoscale(pipeline.BinaryBytes, r.opts.Precision.Memory),
	))
}

// add binds a new entry to the source at path. The entry is dropped if the
// source is unavailable.
func (r *Registry) add(path string, size int, label string, pipe *pipeline.Pipeline) {
	src, ok := r.source(path, size)
	if !ok {
		return
	}
	idx := len(r.Entries)
	r.Entries = append(r.Entries, &Entry{Label: label, Source: src, pipe: pipe})
	r.Sources[src].consumers = append(r.Sources[src].consumers, idx)
}

// feed binds pipe to the source at path without creating an entry. It
// reports whether the source is available.
func (r *Registry) feed(path string, size int, pipe *pipeline.Pipeline) bool {
	src, ok := r.source(path, size)
	if !ok {
		return false
	}
	r.Sources[src].feeds = append(r.Sources[src].feeds, pipe)
	return true
}

// derived appends an entry rendered from other pipelines.
func (r *Registry) derived(label string, render func() string) {
	r.Entries = append(r.Entries, &Entry{Label: label, Source: NoSource, derive: render})
}

// source returns the index of the source for path, opening it on first use.
func (r *Registry) source(path string, size int) (int, bool) {
	f, err := r.opts.Open(path)
	if err != nil {
		r.logger.Debug("source unavailable", "path", path, "error", err)
		r.Dropped = append(r.Dropped, path)
		return 0, false
	}

	key, err := statKey(f)
	if err != nil {
		f.Close()
		r.logger.Debug("source unavailable", "path", path, "error", err)
		r.Dropped = append(r.Dropped, path)
		return 0, false
	}
	if idx, ok := r.byKey[key]; ok {
		f.Close()
		return idx, true
	}

	idx := len(r.Sources)
	r.Sources = append(r.Sources, &Source{
		Path: path,
		File: f,
		Buf:  linebuf.New(size),
	})
	r.byKey[key] = idx
	return idx, true
}

func (r *Registry) procPath(elem ...string) string {
	return filepath.Join(append([]string{r.opts.ProcRoot}, elem...)...)
}

func (r *Registry) bufferBytes() uint64 {
	var total uint64
	for _, s := range r.Sources {
		total += uint64(s.Buf.Cap())
	}
	return total
}

// Complete feeds the result of one read of source idx into every pipeline
// bound to it. A failed read renders those pipelines as the sentinel. A read
// of zero bytes leaves them unchanged.
func (r *Registry) Complete(idx, n int, err error) {
	if idx < 0 || idx >= len(r.Sources) {
		r.logger.Warn("completion for unknown source", "source", idx)
		return
	}
	src := r.Sources[idx]

	switch {
	case err != nil:
		r.logger.Debug("read failed", "path", src.Path, "error", err)
		r.fail(src)
		return
	case n <= 0:
		return
	}

	src.Buf.Bump(n)
	src.Buf.TakeReserve()
	if err := src.Buf.Terminate(extract.Terminator); err != nil {
		r.logger.Debug("raw buffer overflow", "path", src.Path, "error", err)
		r.fail(src)
		return
	}
	raw := src.Buf.Bytes()
	for _, p := range src.feeds {
		p.Advance(raw)
	}
	for _, e := range src.consumers {
		r.Entries[e].pipe.Advance(raw)
	}
}

func (r *Registry) fail(src *Source) {
	for _, p := range src.feeds {
		p.Fail()
	}
	for _, e := range src.consumers {
		r.Entries[e].pipe.Fail()
	}
}

// Close closes every source file.
func (r *Registry) Close() error {
	var errs []error
	for _, s := range r.Sources {
		if err := s.File.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.Sources = nil
	return errors.Join(errs...)
}
