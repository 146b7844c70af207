// Package manpage generates a roff-formatted man page for status.
//
// The specifier section is generated from specifier.Table, so the page
// always matches the parser.
//
// Usage:
//
//	status --man | man -l -
//	status --man > ~/.local/share/man/man1/status.1
package manpage

import (
	"fmt"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/pulse-status/specifier"
)

// Generate produces a complete man(1) page. The version, commit and date
// come from the build-time linker variables.
func Generate(version, commit, date string) string {
	var b strings.Builder

	writeHeader(&b, version)
	writeName(&b)
	writeSynopsis(&b)
	writeDescription(&b)
	writeOptions(&b)
	writeSpecifiers(&b)
	writeConfiguration(&b)
	writeFiles(&b)
	writeEnvironment(&b)
	writeExamples(&b)
	writeExitStatus(&b)
	writeFooter(&b, version, commit, date)

	return b.String()
}

// roffEscape escapes special roff characters in a string.
func roffEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `-`, `\-`)
	if strings.HasPrefix(s, ".") || strings.HasPrefix(s, "'") {
		s = `\&` + s
	}
	return s
}

func writeHeader(b *strings.Builder, version string) {
	month := time.Now().Format("January 2006")
	fmt.Fprintf(b, ".TH STATUS 1 \"%s\" \"status %s\" \"User Commands\"\n", month, version)
}

func writeName(b *strings.Builder) {
	b.WriteString(`.SH NAME
status \- print a one\-line system status on every clock tick
`)
}

func writeSynopsis(b *strings.Builder) {
	b.WriteString(`.SH SYNOPSIS
.B status
[\fIOPTIONS\fR] [\fISPECIFIER\fR...]
`)
}

func writeDescription(b *strings.Builder) {
	b.WriteString(`.SH DESCRIPTION
.B status
samples kernel pseudo\-files on wall\-clock aligned ticks and writes one
line per tick to standard output, for consumption by a status bar.
Each specifier contributes one or more space\-separated fields.
A field whose source cannot be parsed shows
.BR ??? .
Lines never exceed the configured width and always end in a newline.
.PP
The program exits cleanly when standard output is closed.
`)
}

func writeOptions(b *strings.Builder) {
	b.WriteString(".SH OPTIONS\n")
	flags := []struct {
		short, long, arg, desc string
	}{
		{"c", "config", "path", "Read configuration from path instead of the search locations."},
		{"", "env-file", "path", "Load environment overrides from a dotenv file."},
		{"i", "interval", "duration", "Tick interval, for example 1s or 500ms."},
		{"w", "width", "bytes", "Maximum line width. 0 uses the terminal width, or 120."},
		{"v", "verbose", "", "Enable debug logging on standard error."},
		{"", "list", "", "Print the specifier table and exit."},
		{"", "man", "", "Print this manual page and exit."},
		{"", "version", "", "Print version information and exit."},
	}
	for _, f := range flags {
		b.WriteString(".TP\n")
		name := `\-\-` + roffEscape(f.long)
		if f.short != "" {
			name = `\-` + f.short + ", " + name
		}
		if f.arg != "" {
			fmt.Fprintf(b, ".BI \"%s \" %s\n", name, f.arg)
		} else {
			fmt.Fprintf(b, ".B %s\n", name)
		}
		b.WriteString(f.desc + "\n")
	}
}

func writeSpecifiers(b *strings.Builder) {
	b.WriteString(`.SH SPECIFIERS
A specifier has the form
\fImain\fR[\fB:\fR\fIsub\fR[\fB,\fR\fIsub\fR...]].
Without specifiers the configured list is used.
`)
	for _, d := range specifier.Table() {
		fmt.Fprintf(b, ".TP\n.B %s\n%s.\n", roffEscape(strings.Join(d.Aliases, ", ")), roffEscape(d.Summary))
		if len(d.Subs) > 0 {
			fmt.Fprintf(b, ".br\nSubs: %s.\n", roffEscape(strings.Join(d.Subs, ", ")))
		}
		if d.Default != "" {
			fmt.Fprintf(b, ".br\nDefault: %s.\n", roffEscape(d.Default))
		}
	}
}

func writeConfiguration(b *strings.Builder) {
	b.WriteString(`.SH CONFIGURATION
The configuration file is YAML or TOML, chosen by extension.
.TP
.B interval
Tick interval (default 500ms). Must divide 24h evenly.
.TP
.B line_width
Maximum line width in bytes.
.TP
.B date_format
strftime layout of the datetime field.
.TP
.B specifiers
Default specifier list.
.TP
.B rate_limit
Ticks between refreshes per source kind: load, pressure, memory, battery.
.TP
.B smoothing
Moving average mode (exponential or window), alpha and window.
.TP
.B precision
Decimal places per field kind: load, pressure, memory, battery (time to empty).
.TP
.B paths
Roots of the proc and sys file systems.
`)
}

func writeFiles(b *strings.Builder) {
	b.WriteString(`.SH FILES
.TP
.I ~/.config/pulse\-status/config.yaml
.TP
.I ~/.config/pulse\-status/config.toml
.TP
.I /proc/loadavg, /proc/pressure/*, /proc/meminfo
.TP
.I /sys/class/power_supply/*
`)
}

func writeEnvironment(b *strings.Builder) {
	b.WriteString(`.SH ENVIRONMENT
.TP
.B PULSE_STATUS_INTERVAL
Override the tick interval.
.TP
.B PULSE_STATUS_LINE_WIDTH
Override the line width.
.TP
.B PULSE_STATUS_DATE_FORMAT
Override the date layout.
.TP
.B PULSE_STATUS_LOG_LEVEL
Override the log level.
.TP
.B XDG_CONFIG_HOME
Base directory of the configuration search path.
`)
}

func writeExamples(b *strings.Builder) {
	b.WriteString(`.SH EXAMPLES
.nf
status datetime load pressure:cpu,io memory:avail battery
status \-i 5s \-w 80 mem:t,a,fs
.fi
`)
}

func writeExitStatus(b *strings.Builder) {
	b.WriteString(".SH EXIT STATUS\n")
	b.WriteString(".TP\n.B 0\nStandard output was closed or a termination signal arrived.\n")
	b.WriteString(".TP\n.B 1\nInvalid configuration, unknown specifier or a failed system call.\n")
	b.WriteString(".TP\n.B 2\nInvalid command line flags.\n")
}

func writeFooter(b *strings.Builder, version, commit, date string) {
	fmt.Fprintf(b, ".SH VERSION\nstatus %s (commit %s, built %s)\n", roffEscape(version), roffEscape(commit), roffEscape(date))
}
