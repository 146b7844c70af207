package pipeline

import (
	"strconv"

	"gitlab.com/tinyland/lab/pulse-status/extract"
)

// Format renders the final sample of a pipeline.
type Format struct {
	// Label prefixes the value as "label: value". Empty renders the bare value.
	Label string
	// Precision is the number of decimals for numbers that carry
	// DefaultPrecision. A negative value uses the shortest representation.
	Precision int
	// Unit is appended after the value and any unit set by Autoscale.
	Unit string
}

// Render formats s.
func (f Format) Render(s Sample) string {
	value := f.value(s)
	if f.Label == "" {
		return value
	}
	return f.Label + ": " + value
}

func (f Format) value(s Sample) string {
	switch s.Kind {
	case Number:
		precision := s.Precision
		if precision == DefaultPrecision {
			precision = f.Precision
		}
		if precision < 0 {
			precision = -1 // shortest
		}
		return strconv.FormatFloat(s.Value, 'f', precision, 64) + s.Unit + f.Unit
	case Text:
		return s.Text + s.Unit + f.Unit
	}
	return extract.Sentinel
}
