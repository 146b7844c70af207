package pipeline

import (
	"strconv"

	"gitlab.com/tinyland/lab/pulse-status/extract"
)

// ExtractKind selects how an Extractor reads a raw buffer.
type ExtractKind uint8

const (
	// ExtractToken parses the first delimited token as a number.
	ExtractToken ExtractKind = iota
	// ExtractLine takes the first line as text.
	ExtractLine
	// ExtractPressure parses the avg10 value of a PSI file.
	ExtractPressure
	// ExtractMemory parses a /proc/meminfo field, in bytes.
	ExtractMemory
)

// Extractor is the head of a pipeline: it turns raw bytes into a Sample.
// The set of kinds is closed; Extract switches on Kind instead of holding a
// function value.
type Extractor struct {
	Kind ExtractKind
	// Delim separates tokens for ExtractToken. Zero splits on any ASCII
	// whitespace.
	Delim byte
	// Key names the field for ExtractMemory.
	Key string
}

// Token extracts the first token split on delim as a number.
func Token(delim byte) Extractor {
	return Extractor{Kind: ExtractToken, Delim: delim}
}

// Line extracts the first line as text.
func Line() Extractor {
	return Extractor{Kind: ExtractLine}
}

// Pressure extracts the PSI avg10 value.
func Pressure() Extractor {
	return Extractor{Kind: ExtractPressure}
}

// Memory extracts the meminfo field key in bytes.
func Memory(key string) Extractor {
	return Extractor{Kind: ExtractMemory, Key: key}
}

// Extract reads raw, which must end with extract.Terminator. Failures yield
// Missing.
func (e Extractor) Extract(raw []byte) Sample {
	switch e.Kind {
	case ExtractToken:
		if e.Delim == 0 {
			return parseNumber(extract.FirstTokenFunc(raw, extract.IsSpace))
		}
		return parseNumber(extract.FirstToken(raw, e.Delim))
	case ExtractLine:
		return Str(extract.FirstTokenFunc(raw, extract.IsControl))
	case ExtractPressure:
		return parseNumber(extract.PressureAvg10(raw))
	case ExtractMemory:
		v, ok := extract.MemoryField(raw, e.Key)
		if !ok {
			return Missing
		}
		return Num(float64(v))
	}
	return Missing
}

func parseNumber(s string) Sample {
	if s == extract.Sentinel {
		return Missing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing
	}
	return Num(v)
}
