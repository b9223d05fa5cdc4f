package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// hostPrompt asks for a visualizer host after a failed connect.
type hostPrompt struct {
	input     textinput.Model
	lastErr   error
	done      bool
	cancelled bool
}

func newHostPrompt(suggestion string, lastErr error) hostPrompt {
	ti := textinput.New()
	ti.Placeholder = "localhost"
	ti.SetValue(suggestion)
	ti.CursorEnd()
	ti.Prompt = "> "
	ti.CharLimit = 253
	ti.Width = 40
	ti.Focus()
	return hostPrompt{input: ti, lastErr: lastErr}
}

func (m hostPrompt) Init() tea.Cmd {
	return textinput.Blink
}

func (m hostPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m hostPrompt) View() string {
	if m.done || m.cancelled {
		return ""
	}
	b := &strings.Builder{}
	fmt.Fprintln(b, titleStyle.Render("Could not reach the visualizer"))
	if m.lastErr != nil {
		fmt.Fprintln(b, errorStyle.Render(m.lastErr.Error()))
	}
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Server IP or host name:")
	fmt.Fprintln(b, m.input.View())
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, helpStyle.Render("enter connect  esc give up"))
	return b.String()
}

func (m hostPrompt) result() (string, bool) {
	if m.cancelled || !m.done {
		return "", false
	}
	return strings.TrimSpace(m.input.Value()), true
}

// Prompter runs a small bubbletea program per question. It satisfies
// transport.Prompter.
type Prompter struct {
	Options []tea.ProgramOption
}

func (p Prompter) PromptHost(ctx context.Context, suggestion string, lastErr error) (string, bool, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, p.Options...)
	final, err := tea.NewProgram(newHostPrompt(suggestion, lastErr), opts...).Run()
	if err != nil {
		return "", false, fmt.Errorf("host prompt: %w", err)
	}
	host, ok := final.(hostPrompt).result()
	return host, ok, nil
}
