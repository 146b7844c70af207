// Package extract turns raw bytes sampled from kernel pseudo-files into
// values. The functions here are pure: they never perform I/O and never fail
// hard. Anything unparseable yields Sentinel (or false), so a transient
// formatting quirk in /proc degrades a single field instead of the line.
//
// All inputs are expected to end with Terminator, as written by the
// collection round after a completed read. Unterminated input is treated as
// unparseable.
package extract

import (
	"bytes"
	"strconv"
)

// Terminator marks the end of a sampled buffer.
const Terminator byte = 0

// Sentinel is the placeholder value for anything that could not be extracted.
const Sentinel = "???"

// terminated strips the trailing Terminator. The second return value is false
// if raw is not terminated.
func terminated(raw []byte) ([]byte, bool) {
	if len(raw) == 0 || raw[len(raw)-1] != Terminator {
		return nil, false
	}
	return raw[:len(raw)-1], true
}

// FirstToken returns the first non-empty token of raw when split on delim.
// A newline always ends a token.
func FirstToken(raw []byte, delim byte) string {
	return FirstTokenFunc(raw, func(c byte) bool { return c == delim })
}

// FirstTokenFunc returns the first non-empty token of raw, splitting wherever
// isDelim reports true. A newline always ends a token.
func FirstTokenFunc(raw []byte, isDelim func(byte) bool) string {
	text, ok := terminated(raw)
	if !ok {
		return Sentinel
	}

	start := -1
	for i, c := range text {
		end := c == '\n' || isDelim(c)
		switch {
		case start < 0 && !end:
			start = i
		case start >= 0 && end:
			return string(text[start:i])
		}
	}
	if start < 0 {
		return Sentinel
	}
	return string(text[start:])
}

// IsSpace reports whether c is ASCII whitespace.
func IsSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// IsControl reports whether c is an ASCII control character.
func IsControl(c byte) bool {
	return c < 0x20 || c == 0x7f
}

// PressureAvg10 returns the avg10 value of the "some" line of a PSI file:
//
//	some avg10=1.23 avg60=0.50 avg300=0.10 total=999
//	full avg10=0.00 avg60=0.00 avg300=0.00 total=0
func PressureAvg10(raw []byte) string {
	text, ok := terminated(raw)
	if !ok {
		return Sentinel
	}

	for len(text) > 0 {
		var line []byte
		line, text, _ = bytes.Cut(text, []byte{'\n'})

		rest, found := bytes.CutPrefix(line, []byte("some"))
		if !found || (len(rest) > 0 && rest[0] != ' ') {
			continue
		}
		for _, field := range bytes.Split(rest, []byte{' '}) {
			key, value, ok := bytes.Cut(field, []byte{'='})
			if ok && string(key) == "avg10" && len(value) > 0 {
				return string(value)
			}
		}
		return Sentinel
	}
	return Sentinel
}

// MemoryField scans /proc/meminfo-style lines ("Key:    value kB") for key
// and returns its value in bytes. Values carrying the kB unit are multiplied
// by 1024; values without a unit are returned as-is.
func MemoryField(raw []byte, key string) (uint64, bool) {
	text, ok := terminated(raw)
	if !ok {
		return 0, false
	}

	for len(text) > 0 {
		var line []byte
		line, text, _ = bytes.Cut(text, []byte{'\n'})

		name, rest, found := bytes.Cut(line, []byte{':'})
		if !found || string(name) != key {
			continue
		}

		fields := bytes.Fields(rest)
		if len(fields) == 0 {
			return 0, false
		}
		value, err := strconv.ParseUint(string(fields[0]), 10, 64)
		if err != nil {
			return 0, false
		}
		if len(fields) > 1 && string(fields[1]) == "kB" {
			value *= 1024
		}
		return value, true
	}
	return 0, false
}
