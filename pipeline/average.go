package pipeline

import "fmt"

// Mode selects the moving average flavour.
type Mode int

const (
	// Exponential computes state' = alpha*new + (1-alpha)*state.
	Exponential Mode = iota
	// Window computes the mean of the last Window samples.
	Window
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case Exponential:
		return "exponential"
	case Window:
		return "window"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a configuration name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "exponential", "ema":
		return Exponential, nil
	case "window", "windowed":
		return Window, nil
	}
	return 0, fmt.Errorf("pipeline: unknown smoothing mode %q", s)
}

// Smoothing configures MovingAverage.
type Smoothing struct {
	Mode Mode
	// Alpha is the weight of the newest sample, in (0, 1].
	Alpha float64
	// Window is the number of samples averaged in Window mode.
	Window int
}

// DefaultSmoothing returns the defaults used when nothing is configured.
func DefaultSmoothing() Smoothing {
	return Smoothing{Mode: Exponential, Alpha: 0.2, Window: 8}
}

// MovingAverage returns a link that smooths numeric samples. Text samples
// pass through unchanged; invalid samples pass through without touching the
// accumulated state.
func MovingAverage(cfg Smoothing) Link {
	return func(next Stage) Stage {
		if cfg.Mode == Window {
			size := cfg.Window
			if size < 1 {
				size = 1
			}
			return &windowMean{next: next, samples: make([]float64, size)}
		}
		alpha := cfg.Alpha
		if alpha <= 0 || alpha > 1 {
			alpha = DefaultSmoothing().Alpha
		}
		return &ema{next: next, alpha: alpha}
	}
}

// GatedAverage is MovingAverage accumulating only while open reports true.
// While the gate is closed samples pass through unchanged and the
// accumulated state is discarded, so the next open period starts afresh.
func GatedAverage(cfg Smoothing, open func() bool) Link {
	avg := MovingAverage(cfg)
	return func(next Stage) Stage {
		return &gated{open: open, avg: avg(next).(averager), next: next}
	}
}

type averager interface {
	Stage
	reset()
}

type gated struct {
	open func() bool
	avg  averager
	next Stage
}

func (g *gated) Advance(in Sample) Sample {
	if !g.open() {
		g.avg.reset()
		return g.next.Advance(in)
	}
	return g.avg.Advance(in)
}

type ema struct {
	next   Stage
	alpha  float64
	state  float64
	primed bool
}

func (e *ema) Advance(in Sample) Sample {
	if in.Kind != Number {
		return e.next.Advance(in)
	}
	if !e.primed {
		e.state = in.Value
		e.primed = true
	} else {
		e.state = e.alpha*in.Value + (1-e.alpha)*e.state
	}
	in.Value = e.state
	return e.next.Advance(in)
}

func (e *ema) reset() { e.primed = false }

type windowMean struct {
	next    Stage
	samples []float64
	pos     int
	filled  int
}

func (w *windowMean) Advance(in Sample) Sample {
	if in.Kind != Number {
		return w.next.Advance(in)
	}
	w.samples[w.pos] = in.Value
	w.pos = (w.pos + 1) % len(w.samples)
	if w.filled < len(w.samples) {
		w.filled++
	}

	var sum float64
	for _, v := range w.samples[:w.filled] {
		sum += v
	}
	in.Value = sum / float64(w.filled)
	return w.next.Advance(in)
}

func (w *windowMean) reset() {
	w.pos = 0
	w.filled = 0
}
