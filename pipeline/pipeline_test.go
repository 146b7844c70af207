package pipeline

import (
	"math"
	"testing"

	"gitlab.com/tinyland/lab/pulse-status/extract"
)

func term(s string) []byte {
	return append([]byte(s), extract.Terminator)
}

// counter records how often the rest of a chain was invoked.
type counter struct {
	calls []int
	tick  int
}

func (c *counter) link() Link {
	return func(next Stage) Stage {
		return StageFunc(func(in Sample) Sample {
			c.calls = append(c.calls, c.tick)
			return next.Advance(in)
		})
	}
}

func TestRateLimitPeriod(t *testing.T) {
	c := &counter{}
	stage := Chain(RateLimit(4), c.link())

	var outputs []float64
	for tick := 0; tick < 8; tick++ {
		c.tick = tick
		out := stage.Advance(Num(float64(tick * 10)))
		outputs = append(outputs, out.Value)
	}

	wantCalls := []int{0, 4}
	if len(c.calls) != len(wantCalls) {
		t.Fatalf("downstream invoked on ticks %v, want %v", c.calls, wantCalls)
	}
	for i := range wantCalls {
		if c.calls[i] != wantCalls[i] {
			t.Errorf("call %d on tick %d, want %d", i, c.calls[i], wantCalls[i])
		}
	}

	wantOut := []float64{0, 0, 0, 0, 40, 40, 40, 40}
	for i, got := range outputs {
		if got != wantOut[i] {
			t.Errorf("tick %d output = %v, want %v", i, got, wantOut[i])
		}
	}
}

func TestRateLimitRetriesInvalid(t *testing.T) {
	c := &counter{}
	stage := Chain(RateLimit(4), c.link())

	inputs := []Sample{Missing, Num(1), Num(2), Num(3)}
	for tick, in := range inputs {
		c.tick = tick
		stage.Advance(in)
	}

	// Tick 0 yields Missing, so tick 1 recomputes and starts a new period.
	if len(c.calls) != 2 || c.calls[0] != 0 || c.calls[1] != 1 {
		t.Errorf("downstream invoked on ticks %v, want [0 1]", c.calls)
	}
}

func TestRateLimitPeriodOne(t *testing.T) {
	c := &counter{}
	stage := Chain(RateLimit(0), c.link())
	for tick := 0; tick < 3; tick++ {
		c.tick = tick
		stage.Advance(Num(1))
	}
	if len(c.calls) != 3 {
		t.Errorf("period below 1 should recompute every tick, got calls %v", c.calls)
	}
}

func TestExponentialMovingAverage(t *testing.T) {
	stage := Chain(MovingAverage(Smoothing{Mode: Exponential, Alpha: 0.5}))

	tests := []struct {
		in   Sample
		want float64
	}{
		{in: Num(10), want: 10},
		{in: Num(20), want: 15},
		{in: Missing, want: 0},
		{in: Num(5), want: 10},
	}

	for i, tt := range tests {
		out := stage.Advance(tt.in)
		if !tt.in.Valid() {
			if out.Valid() {
				t.Errorf("step %d: invalid input produced %v", i, out)
			}
			continue
		}
		if math.Abs(out.Value-tt.want) > 1e-9 {
			t.Errorf("step %d: value = %v, want %v", i, out.Value, tt.want)
		}
	}
}

func TestWindowMovingAverage(t *testing.T) {
	stage := Chain(MovingAverage(Smoothing{Mode: Window, Window: 3}))

	inputs := []float64{3, 6, 9, 12, 0}
	want := []float64{3, 4.5, 6, 9, 7}
	for i, v := range inputs {
		out := stage.Advance(Num(v))
		if math.Abs(out.Value-want[i]) > 1e-9 {
			t.Errorf("step %d: value = %v, want %v", i, out.Value, want[i])
		}
	}
}

func TestMovingAveragePassesText(t *testing.T) {
	stage := Chain(MovingAverage(DefaultSmoothing()))
	out := stage.Advance(Str("Charging"))
	if out.Kind != Text || out.Text != "Charging" {
		t.Errorf("text sample altered: %+v", out)
	}
}

func TestGatedAverage(t *testing.T) {
	open := true
	stage := Chain(GatedAverage(Smoothing{Mode: Exponential, Alpha: 0.5}, func() bool { return open }))

	steps := []struct {
		open bool
		in   float64
		want float64
	}{
		{open: true, in: 10, want: 10},
		{open: true, in: 20, want: 15},
		{open: false, in: 100, want: 100}, // passed through, state dropped
		{open: true, in: 40, want: 40},    // starts afresh
		{open: true, in: 20, want: 30},
	}
	for i, step := range steps {
		open = step.open
		out := stage.Advance(Num(step.in))
		if math.Abs(out.Value-step.want) > 1e-9 {
			t.Errorf("step %d: value = %v, want %v", i, out.Value, step.want)
		}
	}
}

func TestGatedWindowAverageResets(t *testing.T) {
	open := true
	stage := Chain(GatedAverage(Smoothing{Mode: Window, Window: 4}, func() bool { return open }))

	stage.Advance(Num(2))
	stage.Advance(Num(4))
	open = false
	stage.Advance(Num(50))
	open = true
	if out := stage.Advance(Num(8)); out.Value != 8 {
		t.Errorf("value after reopening = %v, want 8", out.Value)
	}
}

func TestAutoscalePick(t *testing.T) {
	tests := []struct {
		name      string
		table     UnitTable
		in        float64
		wantValue float64
		wantUnit  string
	}{
		{name: "exactly one GiB", table: BinaryBytes, in: 1073741824, wantValue: 1, wantUnit: "GiB"},
		{name: "just below GiB", table: BinaryBytes, in: 1073741823, wantValue: 1073741823.0 / (1 << 20), wantUnit: "MiB"},
		{name: "exactly one KiB", table: BinaryBytes, in: 1024, wantValue: 1, wantUnit: "KiB"},
		{name: "bytes", table: BinaryBytes, in: 512, wantValue: 512, wantUnit: "B"},
		{name: "zero", table: BinaryBytes, in: 0, wantValue: 0, wantUnit: "B"},
		{name: "beyond table", table: BinaryBytes, in: 4 << 40, wantValue: 4096, wantUnit: "GiB"},
		{name: "hours", table: Seconds, in: 9000, wantValue: 2.5, wantUnit: "h"},
		{name: "minutes", table: Seconds, in: 3599, wantValue: 3599.0 / 60, wantUnit: "min"},
		{name: "seconds", table: Seconds, in: 42, wantValue: 42, wantUnit: "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, unit := tt.table.Pick(tt.in)
			if unit.Name != tt.wantUnit {
				t.Errorf("unit = %q, want %q", unit.Name, tt.wantUnit)
			}
			if math.Abs(value-tt.wantValue) > 1e-9 {
				t.Errorf("value = %v, want %v", value, tt.wantValue)
			}
		})
	}
}

func TestAutoscaleFormatsFixedDecimals(t *testing.T) {
	p := New(Memory("MemTotal"), Format{}, Autoscale(BinaryBytes, 2))
	got := p.Advance(term("MemTotal:        1048576 kB\n"))
	if got != "1.00GiB" {
		t.Errorf("Advance() = %q, want %q", got, "1.00GiB")
	}
}

func TestFormatRender(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		in     Sample
		want   string
	}{
		{name: "labeled number", format: Format{Label: "load", Precision: 2}, in: Num(0.12), want: "load: 0.12"},
		{name: "bare number", format: Format{Precision: 0, Unit: "%"}, in: Num(87), want: "87%"},
		{name: "sample precision wins", format: Format{Precision: 3}, in: Sample{Kind: Number, Value: 1.5, Unit: "GiB", Precision: 1}, want: "1.5GiB"},
		{name: "shortest", format: Format{Precision: -1}, in: Num(0.125), want: "0.125"},
		{name: "text", format: Format{Label: "BAT0"}, in: Str("+"), want: "BAT0: +"},
		{name: "missing labeled", format: Format{Label: "cpu", Unit: "%"}, in: Missing, want: "cpu: ???"},
		{name: "missing bare", format: Format{}, in: Missing, want: "???"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.Render(tt.in); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractor(t *testing.T) {
	tests := []struct {
		name string
		ex   Extractor
		raw  []byte
		want Sample
	}{
		{name: "load token", ex: Token(' '), raw: term("0.12 0.08 0.05 1/234 5678\n"), want: Num(0.12)},
		{name: "whitespace token", ex: Token(0), raw: term("87\n"), want: Num(87)},
		{name: "token not a number", ex: Token(' '), raw: term("abc\n"), want: Missing},
		{name: "pressure", ex: Pressure(), raw: term("some avg10=1.23 avg60=0.50 avg300=0.10 total=999\n"), want: Num(1.23)},
		{name: "memory", ex: Memory("MemFree"), raw: term("MemFree: 2 kB\n"), want: Num(2048)},
		{name: "memory missing", ex: Memory("MemFree"), raw: term("MemTotal: 2 kB\n"), want: Missing},
		{name: "line", ex: Line(), raw: term("Not charging\n"), want: Str("Not charging")},
		{name: "empty line", ex: Line(), raw: term(""), want: Missing},
		{name: "unterminated", ex: Token(' '), raw: []byte("1.0"), want: Missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ex.Extract(tt.raw); got != tt.want {
				t.Errorf("Extract() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPipelineFullChain(t *testing.T) {
	p := New(
		Memory("MemAvailable"),
		Format{Label: "avail"},
		RateLimit(2),
		MovingAverage(Smoothing{Mode: Window, Window: 2}),
		Autoscale(BinaryBytes, 1),
	)

	if got := p.Display(); got != "avail: ???" {
		t.Errorf("initial Display() = %q, want %q", got, "avail: ???")
	}

	steps := []struct {
		raw  string
		want string
	}{
		{raw: "MemAvailable: 2097152 kB\n", want: "avail: 2.0GiB"},
		{raw: "MemAvailable: 1048576 kB\n", want: "avail: 2.0GiB"}, // held
		{raw: "MemAvailable: 1048576 kB\n", want: "avail: 1.5GiB"}, // mean of 2 GiB and 1 GiB
	}
	for i, step := range steps {
		if got := p.Advance(term(step.raw)); got != step.want {
			t.Errorf("step %d: Advance() = %q, want %q", i, got, step.want)
		}
	}

	if got := p.Fail(); got != "avail: ???" {
		t.Errorf("Fail() = %q, want %q", got, "avail: ???")
	}
	if got := p.Display(); got != "avail: ???" {
		t.Errorf("Display() after Fail = %q", got)
	}
}

func TestPipelineValue(t *testing.T) {
	p := New(Token(0), Format{Unit: "%"})
	if p.Value().Valid() {
		t.Errorf("initial Value() = %+v, want Missing", p.Value())
	}
	p.Advance(term("87\n"))
	if v := p.Value(); v.Kind != Number || v.Value != 87 {
		t.Errorf("Value() = %+v, want 87", v)
	}
	p.Fail()
	if p.Value().Valid() {
		t.Errorf("Value() after Fail = %+v, want Missing", p.Value())
	}
}

func TestMapStage(t *testing.T) {
	upper := Map(func(s Sample) Sample {
		if s.Kind == Text && s.Text == "Charging" {
			return Str("+")
		}
		return s
	})
	p := New(Line(), Format{}, upper)
	if got := p.Advance(term("Charging\n")); got != "+" {
		t.Errorf("Advance() = %q, want %q", got, "+")
	}
}

func TestParseMode(t *testing.T) {
	for _, name := range []string{"exponential", "ema"} {
		if m, err := ParseMode(name); err != nil || m != Exponential {
			t.Errorf("ParseMode(%q) = %v, %v", name, m, err)
		}
	}
	if m, err := ParseMode("window"); err != nil || m != Window {
		t.Errorf("ParseMode(window) = %v, %v", m, err)
	}
	if _, err := ParseMode("median"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
