// Package specifier parses the command line specifiers that select status
// line entries. A specifier has the form
//
//	<main>[:<sub>[,<sub>...]]
//
// Main and sub names are matched case-sensitively against fixed alias lists.
package specifier

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMain is returned for an unrecognized main specifier.
	ErrUnknownMain = errors.New("unknown main specifier")
	// ErrUnknownSub is returned for an unrecognized sub specifier.
	ErrUnknownSub = errors.New("unknown sub specifier")
	// ErrUnexpectedSub is returned when a main specifier that takes no sub
	// specifiers is given some.
	ErrUnexpectedSub = errors.New("specifier takes no sub specifiers")
)

// Spec is a parsed specifier.
type Spec struct {
	Main string
	Subs []string
}

// Parse splits s at the first colon into the main tag and a comma separated
// list of sub tags. Empty sub tags are dropped.
func Parse(s string) Spec {
	main, rest, _ := strings.Cut(s, ":")
	var subs []string
	for _, sub := range strings.Split(rest, ",") {
		if sub != "" {
			subs = append(subs, sub)
		}
	}
	return Spec{Main: main, Subs: subs}
}

// String reassembles the specifier.
func (s Spec) String() string {
	if len(s.Subs) == 0 {
		return s.Main
	}
	return s.Main + ":" + strings.Join(s.Subs, ",")
}

// NoSubs fails if s carries sub specifiers.
func (s Spec) NoSubs() error {
	if len(s.Subs) > 0 {
		return fmt.Errorf("specifier %q: %w", s.String(), ErrUnexpectedSub)
	}
	return nil
}

// Main identifies a recognized main specifier.
type Main int

const (
	DateTime Main = iota
	Load
	Pressure
	Memory
	Battery
)

// mainAliases lists the accepted names per main specifier, canonical name
// first.
var mainAliases = []struct {
	main    Main
	aliases []string
}{
	{DateTime, []string{"datetime", "time", "dt", "t"}},
	{Load, []string{"load", "l"}},
	{Pressure, []string{"pressure", "pres", "psi", "p"}},
	{Memory, []string{"memory", "mem", "m"}},
	{Battery, []string{"battery", "bat", "b"}},
}

// Lookup resolves a main specifier name.
func Lookup(name string) (Main, bool) {
	for _, m := range mainAliases {
		for _, alias := range m.aliases {
			if alias == name {
				return m.main, true
			}
		}
	}
	return 0, false
}

// String returns the canonical name.
func (m Main) String() string {
	for _, entry := range mainAliases {
		if entry.main == m {
			return entry.aliases[0]
		}
	}
	return fmt.Sprintf("main(%d)", int(m))
}

// Resolve looks up the main tag of s.
func (s Spec) Resolve() (Main, error) {
	m, ok := Lookup(s.Main)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMain, s.Main)
	}
	return m, nil
}
