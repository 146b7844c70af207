// Package pipeline implements the per-entry value transforms that turn a
// sampled pseudo-file into display text:
//
//	Extract -> RateLimit -> MovingAverage -> Autoscale -> Format
//
// Every transform implements Stage and wraps the stage that follows it, so a
// chain of any length is driven through the single Advance call of its head.
// Per-stage state (held values, averages) lives in the stage itself and
// survives across ticks.
package pipeline

import "gitlab.com/tinyland/lab/pulse-status/extract"

// Kind classifies a Sample.
type Kind uint8

const (
	// Invalid marks a value that could not be obtained.
	Invalid Kind = iota
	// Number marks a numeric value.
	Number
	// Text marks a textual value.
	Text
)

// DefaultPrecision leaves the number of decimals to the Format.
const DefaultPrecision = -1

// Sample is a single value flowing through a pipeline.
type Sample struct {
	Kind  Kind
	Value float64
	Text  string
	// Unit is appended directly after the rendered value.
	Unit string
	// Precision is the number of decimals, or DefaultPrecision.
	Precision int
}

// Missing is the invalid sample. It renders as extract.Sentinel.
var Missing = Sample{Kind: Invalid, Precision: DefaultPrecision}

// Num returns a numeric sample.
func Num(v float64) Sample {
	return Sample{Kind: Number, Value: v, Precision: DefaultPrecision}
}

// Str returns a textual sample. The sentinel text maps to Missing.
func Str(s string) Sample {
	if s == extract.Sentinel {
		return Missing
	}
	return Sample{Kind: Text, Text: s, Precision: DefaultPrecision}
}

// Valid reports whether the sample carries a value.
func (s Sample) Valid() bool {
	return s.Kind != Invalid
}
