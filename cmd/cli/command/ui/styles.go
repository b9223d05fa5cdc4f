package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Nord palette
	nord0  = lipgloss.Color("#2E3440")
	nord2  = lipgloss.Color("#434C5E")
	nord3  = lipgloss.Color("#4C566A")
	nord4  = lipgloss.Color("#D8DEE9")
	nord8  = lipgloss.Color("#88C0D0")
	nord9  = lipgloss.Color("#81A1C1")
	nord10 = lipgloss.Color("#5E81AC")
	nord11 = lipgloss.Color("#BF616A")
	nord13 = lipgloss.Color("#EBCB8B")
	nord14 = lipgloss.Color("#A3BE8C")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(nord8)
	sectionStyle = lipgloss.NewStyle().MarginTop(1).Foreground(nord9)
	focusStyle   = lipgloss.NewStyle().Foreground(nord13)
	btnStyle     = lipgloss.NewStyle().Padding(0, 1).Foreground(nord4).Background(nord2)
	onlineStyle  = lipgloss.NewStyle().Padding(0, 1).Foreground(nord0).Background(nord14)
	offlineStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(nord0).Background(nord11)
	errorStyle   = lipgloss.NewStyle().Foreground(nord11)
	helpStyle    = lipgloss.NewStyle().Faint(true)
	dimStyle     = lipgloss.NewStyle().Foreground(nord3)
)
