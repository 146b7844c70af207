package pipeline

import (
	"math"

	"github.com/dustin/go-humanize"
)

// Unit is one step of a UnitTable. Factor is the size of the unit expressed
// in the table's base unit.
type Unit struct {
	Name   string
	Factor float64
}

// UnitTable lists units in ascending order of Factor.
type UnitTable []Unit

// BinaryBytes scales byte counts.
var BinaryBytes = UnitTable{
	{Name: "B", Factor: humanize.Byte},
	{Name: "KiB", Factor: humanize.KiByte},
	{Name: "MiB", Factor: humanize.MiByte},
	{Name: "GiB", Factor: humanize.GiByte},
}

// Seconds scales durations given in seconds.
var Seconds = UnitTable{
	{Name: "s", Factor: 1},
	{Name: "min", Factor: 60},
	{Name: "h", Factor: 3600},
}

// Pick selects the largest unit in which v is at least 1 and returns v
// expressed in it. A value exactly at a unit boundary uses the larger unit.
// Values below 1 in every unit use the smallest one.
func (t UnitTable) Pick(v float64) (float64, Unit) {
	if len(t) == 0 {
		return v, Unit{Factor: 1}
	}
	best := t[0]
	mag := math.Abs(v)
	for _, u := range t[1:] {
		if mag/u.Factor < 1 {
			break
		}
		best = u
	}
	return v / best.Factor, best
}

// Autoscale returns a link that rescales numeric samples to the best
// fitting unit of table and fixes the number of decimals.
func Autoscale(table UnitTable, precision int) Link {
	return func(next Stage) Stage {
		return StageFunc(func(in Sample) Sample {
			if in.Kind != Number {
				return next.Advance(in)
			}
			value, unit := table.Pick(in.Value)
			in.Value = value
			in.Unit = unit.Name
			in.Precision = precision
			return next.Advance(in)
		})
	}
}
