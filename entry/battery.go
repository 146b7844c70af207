package entry

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gitlab.com/tinyland/lab/pulse-status/pipeline"
)

const (
	supplyTypeBattery = "Battery"
	statusDischarging = "Discharging"
)

// Refresh periods relative to RateLimits.Battery: the design capacity
// hardly changes, the status is checked more often than the charge.
const (
	fullPeriodFactor  = 8
	statusPeriodShare = 3
)

// gauge names the sysfs files reporting the battery level in one unit
// family. Drivers expose either charge (µAh and µA) or energy (µWh and µW).
type gauge struct {
	now, full, rate string
}

var gauges = []gauge{
	{now: "charge_now", full: "charge_full", rate: "current_now"},
	{now: "energy_now", full: "energy_full", rate: "power_now"},
}

func (r *Registry) supplyDir() string {
	return filepath.Join(r.opts.SysRoot, "class", "power_supply")
}

// supplies returns the battery supplies to display. Named supplies are kept
// in the given order; with no names every battery is used, sorted by name.
// Supplies that are not batteries are skipped.
func (r *Registry) supplies(names []string) []string {
	if len(names) == 0 {
		dirents, err := os.ReadDir(r.supplyDir())
		if err != nil {
			r.logger.Debug("no power supplies", "path", r.supplyDir(), "error", err)
			return nil
		}
		for _, d := range dirents {
			names = append(names, d.Name())
		}
		slices.Sort(names)
	}

	var out []string
	for _, name := range names {
		kind, err := os.ReadFile(filepath.Join(r.supplyDir(), name, "type"))
		if err != nil {
			r.logger.Debug("power supply unavailable", "supply", name, "error", err)
			r.Dropped = append(r.Dropped, filepath.Join(r.supplyDir(), name))
			continue
		}
		if string(bytes.TrimSpace(kind)) != supplyTypeBattery {
			continue
		}
		out = append(out, name)
	}
	return out
}

// gaugeOf returns the unit family a supply reports its level in.
func gaugeOf(dir string) (gauge, bool) {
	for _, g := range gauges {
		if _, err := os.Stat(filepath.Join(dir, g.now)); err == nil {
			return g, true
		}
	}
	return gauge{}, false
}

// addBattery adds the state of charge and the status entries of one supply.
// The status shows the estimated time to empty instead of the discharging
// symbol whenever an estimate is available.
func (r *Registry) addBattery(name string) {
	dir := filepath.Join(r.supplyDir(), name)
	period := r.opts.RateLimit.Battery

	status := pipeline.New(pipeline.Line(), pipeline.Format{},
		pipeline.RateLimit(max(1, period/statusPeriodShare)),
	)
	hasStatus := r.feed(filepath.Join(dir, "status"), batterySize, status)
	discharging := func() bool {
		s := status.Value()
		return s.Kind == pipeline.Text && s.Text == statusDischarging
	}

	var level, rate *pipeline.Pipeline
	charged := false
	if g, ok := gaugeOf(dir); ok {
		now := pipeline.New(pipeline.Token(0), pipeline.Format{}, pipeline.RateLimit(period))
		full := pipeline.New(pipeline.Token(0), pipeline.Format{}, pipeline.RateLimit(period*fullPeriodFactor))
		if r.feed(filepath.Join(dir, g.now), batterySize, now) {
			level = now
			if r.feed(filepath.Join(dir, g.full), batterySize, full) {
				charged = true
				soc := pipeline.Format{Label: name, Unit: "%"}
				r.derived(name, func() string {
					return soc.Render(stateOfCharge(now.Value(), full.Value()))
				})
			}
		}
		if hasStatus && level != nil {
			avg := pipeline.New(pipeline.Token(0), pipeline.Format{},
				pipeline.GatedAverage(r.opts.Smoothing, discharging),
			)
			if r.feed(filepath.Join(dir, g.rate), batterySize, avg) {
				rate = avg
			}
		}
	}
	if !charged {
		r.add(filepath.Join(dir, "capacity"), batterySize, name, pipeline.New(
			pipeline.Token(0), pipeline.Format{Label: name, Unit: "%"},
			pipeline.RateLimit(period),
		))
	}

	if !hasStatus {
		return
	}
	estimate := pipeline.Chain(pipeline.Autoscale(pipeline.Seconds, r.opts.Precision.Battery))
	var plain pipeline.Format
	r.derived("", func() string {
		s := status.Value()
		if discharging() && level != nil && rate != nil {
			if left := timeToEmpty(level.Value(), rate.Value()); left.Valid() {
				return plain.Render(estimate.Advance(left))
			}
		}
		return plain.Render(statusSymbol(s))
	})
}

// stateOfCharge returns now as a percentage of full.
func stateOfCharge(now, full pipeline.Sample) pipeline.Sample {
	if now.Kind != pipeline.Number || full.Kind != pipeline.Number || full.Value <= 0 {
		return pipeline.Missing
	}
	return pipeline.Num(100 * now.Value / full.Value)
}

// timeToEmpty returns the seconds until level is used up at rate. The level
// and rate share a unit family (µAh and µA, or µWh and µW). Some drivers
// report the discharge rate as a negative number.
func timeToEmpty(level, rate pipeline.Sample) pipeline.Sample {
	if level.Kind != pipeline.Number || rate.Kind != pipeline.Number {
		return pipeline.Missing
	}
	drain := math.Abs(rate.Value)
	if drain == 0 || math.IsNaN(drain) || math.IsInf(drain, 0) || level.Value < 0 {
		return pipeline.Missing
	}
	return pipeline.Num(level.Value * 3600 / drain)
}

// statusSymbol maps the sysfs status text to a single character.
func statusSymbol(s pipeline.Sample) pipeline.Sample {
	if s.Kind != pipeline.Text {
		return s
	}
	switch s.Text {
	case "Charging":
		return pipeline.Str("+")
	case statusDischarging:
		return pipeline.Str("-")
	case "Full":
		return pipeline.Str("=")
	case "Not charging":
		return pipeline.Str("~")
	}
	return pipeline.Str("?")
}
