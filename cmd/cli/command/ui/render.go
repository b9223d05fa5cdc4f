package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"navpanel/internal/param"
	"navpanel/internal/protocol"
)

// renderSlider draws [====|----] name value (min..max) from the parameter's position.
func renderSlider(r *param.Ranged, width int) string {
	barW := max(10, width-48)
	pos := r.Position() * (barW - 1) / param.Resolution
	bar := strings.Repeat("=", pos) + "|" + strings.Repeat("-", barW-pos-1)
	bounds := dimStyle.Render(fmt.Sprintf("(%s..%s)", protocol.FormatNumber(r.Min()), protocol.FormatNumber(r.Max())))
	return fmt.Sprintf("%-16s [%s] %10s %s", r.Name()+":", bar, protocol.FormatNumber(r.Value()), bounds)
}

// Single-line toggle [ ] Label or [x] Label with color accents
func renderToggle(label string, checked bool, focused bool) string {
	box := "[ ]"
	style := lipgloss.NewStyle().Foreground(nord4)
	if checked {
		box = "[x]"
		style = style.Foreground(nord14)
	}
	out := fmt.Sprintf("%s %s", box, label)
	if focused {
		out = focusStyle.Render(out)
	}
	return style.Render(out)
}

func renderButton(label string, focused bool) string {
	out := btnStyle.Render(label)
	if focused {
		out = focusStyle.Render("> ") + out
	} else {
		out = "  " + out
	}
	return out
}
