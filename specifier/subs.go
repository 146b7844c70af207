package specifier

import "fmt"

// PSI selects a pressure stall information resource.
type PSI int

const (
	PSICPU PSI = iota
	PSIMemory
	PSIIO
)

// DefaultPSI is the expansion of a bare pressure specifier.
var DefaultPSI = []PSI{PSICPU, PSIMemory, PSIIO}

// ParsePSI resolves a pressure sub specifier.
func ParsePSI(s string) (PSI, error) {
	switch s {
	case "cpu", "c":
		return PSICPU, nil
	case "memory", "mem", "m":
		return PSIMemory, nil
	case "io":
		return PSIIO, nil
	}
	return 0, fmt.Errorf("%w for pressure: %q", ErrUnknownSub, s)
}

// File returns the file name below /proc/pressure.
func (p PSI) File() string {
	switch p {
	case PSICPU:
		return "cpu"
	case PSIMemory:
		return "memory"
	default:
		return "io"
	}
}

// Label returns the entry label.
func (p PSI) Label() string {
	switch p {
	case PSICPU:
		return "cpu"
	case PSIMemory:
		return "mem"
	default:
		return "io"
	}
}

// MemItem selects a /proc/meminfo field.
type MemItem int

const (
	MemTotal MemItem = iota
	MemFree
	MemAvailable
	MemSwapTotal
	MemSwapFree
)

// DefaultMem is the expansion of a bare memory specifier.
var DefaultMem = []MemItem{MemAvailable, MemFree}

// ParseMemItem resolves a memory sub specifier.
func ParseMemItem(s string) (MemItem, error) {
	switch s {
	case "total", "tot", "t":
		return MemTotal, nil
	case "free", "f":
		return MemFree, nil
	case "available", "avail", "a":
		return MemAvailable, nil
	case "totalswap", "totsw", "ts":
		return MemSwapTotal, nil
	case "freeswap", "freesw", "fs":
		return MemSwapFree, nil
	}
	return 0, fmt.Errorf("%w for memory: %q", ErrUnknownSub, s)
}

// Key returns the /proc/meminfo key.
func (m MemItem) Key() string {
	switch m {
	case MemTotal:
		return "MemTotal"
	case MemFree:
		return "MemFree"
	case MemAvailable:
		return "MemAvailable"
	case MemSwapTotal:
		return "SwapTotal"
	default:
		return "SwapFree"
	}
}

// Label returns the entry label.
func (m MemItem) Label() string {
	switch m {
	case MemTotal:
		return "total"
	case MemFree:
		return "free"
	case MemAvailable:
		return "avail"
	case MemSwapTotal:
		return "swap"
	default:
		return "swfree"
	}
}

// PSIs resolves the sub specifiers of a pressure spec, falling back to
// DefaultPSI.
func (s Spec) PSIs() ([]PSI, error) {
	if len(s.Subs) == 0 {
		return append([]PSI(nil), DefaultPSI...), nil
	}
	out := make([]PSI, 0, len(s.Subs))
	for _, sub := range s.Subs {
		p, err := ParsePSI(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// MemItems resolves the sub specifiers of a memory spec, falling back to
// DefaultMem.
func (s Spec) MemItems() ([]MemItem, error) {
	if len(s.Subs) == 0 {
		return append([]MemItem(nil), DefaultMem...), nil
	}
	out := make([]MemItem, 0, len(s.Subs))
	for _, sub := range s.Subs {
		m, err := ParseMemItem(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Description documents one main specifier for --list output.
type Description struct {
	Main    Main
	Aliases []string
	Subs    []string
	Default string
	Summary string
}

// Table describes every main specifier in documentation order.
func Table() []Description {
	aliases := func(m Main) []string {
		for _, entry := range mainAliases {
			if entry.main == m {
				return append([]string(nil), entry.aliases...)
			}
		}
		return nil
	}
	return []Description{
		{Main: DateTime, Aliases: aliases(DateTime), Summary: "local date and time"},
		{Main: Load, Aliases: aliases(Load), Summary: "1 minute load average"},
		{
			Main: Pressure, Aliases: aliases(Pressure),
			Subs:    []string{"cpu|c", "memory|mem|m", "io"},
			Default: "cpu,memory,io",
			Summary: "PSI avg10 per resource",
		},
		{
			Main: Memory, Aliases: aliases(Memory),
			Subs:    []string{"total|tot|t", "free|f", "available|avail|a", "totalswap|totsw|ts", "freeswap|freesw|fs"},
			Default: "available,free",
			Summary: "memory counters",
		},
		{
			Main: Battery, Aliases: aliases(Battery),
			Subs:    []string{"<supply name>"},
			Default: "all batteries",
			Summary: "state of charge, status or time to empty",
		},
	}
}
