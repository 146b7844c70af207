package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/pulse-status/specifier"
)

var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorMuted     = lipgloss.Color("#6B7280")
)

// printList writes the specifier table. Colors are used only when styled.
func printList(w io.Writer, styled bool) {
	r := lipgloss.NewRenderer(w)
	name := r.NewStyle().Width(28)
	key := r.NewStyle().PaddingLeft(2).Width(11)
	value := r.NewStyle()
	if styled {
		name = name.Bold(true).Foreground(colorPrimary)
		key = key.Foreground(colorMuted)
		value = value.Foreground(colorSecondary)
	}

	for _, d := range specifier.Table() {
		fmt.Fprintln(w, name.Render(strings.Join(d.Aliases, ", "))+d.Summary)
		if len(d.Subs) > 0 {
			fmt.Fprintln(w, key.Render("subs")+value.Render(strings.Join(d.Subs, ", ")))
		}
		if d.Default != "" {
			fmt.Fprintln(w, key.Render("default")+value.Render(d.Default))
		}
	}
}
